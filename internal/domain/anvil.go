package domain

import "fmt"

// AnvilInstance represents a local anvil node, usually a fork of a live network
type AnvilInstance struct {
	Name    string `json:"name"`
	Port    string `json:"port"`
	ChainID string `json:"chainId,omitempty"`
	ForkURL string `json:"forkUrl,omitempty"`
	PidFile string `json:"pidFile"`
	LogFile string `json:"logFile"`
}

// RPCURL returns the local JSON-RPC endpoint of the instance
func (a *AnvilInstance) RPCURL() string {
	return fmt.Sprintf("http://127.0.0.1:%s", a.Port)
}

