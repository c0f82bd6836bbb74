package mint

import "fmt"

const (
	DefaultCluster = "devnet"

	solanaExplorerTxUrl = "https://explorer.solana.com/tx/%s?cluster=%s"
	metaplexExplorerUrl = "https://core.metaplex.com/explorer/%s?env=%s"
)

type ExplorerLinks struct {
	Transaction string `json:"transaction"`
	Token       string `json:"token"`
}

func NewExplorerLinks(signature, tokenAddress, cluster string) ExplorerLinks {
	if cluster == "" {
		cluster = DefaultCluster
	}

	return ExplorerLinks{
		Transaction: fmt.Sprintf(solanaExplorerTxUrl, signature, cluster),
		Token:       fmt.Sprintf(metaplexExplorerUrl, tokenAddress, cluster),
	}
}

func (l ExplorerLinks) All() []string {
	return []string{l.Transaction, l.Token}
}
