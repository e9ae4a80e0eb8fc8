package entity

// NetworkFamily groups networks that share contract interface versions.
type NetworkFamily string

const (
	// FamilyFlare covers Flare mainnet and its Coston2 testnet.
	FamilyFlare NetworkFamily = "flare"
	// FamilySongbird covers the Songbird canary network and its Coston testnet.
	FamilySongbird NetworkFamily = "songbird"
)

// NetworkDefinition holds the configuration for a specific Flare-family network.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type NetworkDefinition struct {
	ChainID          uint64        `json:"chainId" yaml:"chainId"`
	Name             string        `json:"name" yaml:"name"` // "flare", "songbird", "coston", "coston2"
	Family           NetworkFamily `json:"family" yaml:"family"`
	NativeSymbol     string        `json:"nativeSymbol" yaml:"nativeSymbol"`
	PrimaryRPCURL    string        `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs  []string      `json:"fallbackRpcUrls,omitempty" yaml:"fallbackRpcUrls,omitempty"`
	RegistryAddress  string        `json:"registryAddress" yaml:"registryAddress"`
	BlockExplorerURL string        `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
}

// RPCURLs returns the primary endpoint followed by the fallbacks.
func (n NetworkDefinition) RPCURLs() []string {
	urls := make([]string, 0, 1+len(n.FallbackRPCURLs))
	if n.PrimaryRPCURL != "" {
		urls = append(urls, n.PrimaryRPCURL)
	}
	return append(urls, n.FallbackRPCURLs...)
}
