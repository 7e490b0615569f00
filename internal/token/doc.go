// Package token holds the value types shared by the wallet flow: checksummed
// addresses and decimal token amounts that convert losslessly to and from the
// integer base units used on-chain.
package token
