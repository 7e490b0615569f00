// Package wallet converts raw token balances to human amounts and executes
// balance-checked transfers on top of a web3.TokenClient.
package wallet
