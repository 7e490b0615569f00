// Package web3 defines the chain-facing contracts used by the wallet flow: a
// fungible-token client bound to one contract on one chain, plus the YAML
// chain definitions the client is built from.
package web3
