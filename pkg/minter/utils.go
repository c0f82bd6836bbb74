package minter

import (
	"bytes"
	"encoding/json"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ReportData binds a TDX quote to the fee-payer key and the cluster it mints
// on. The binary form is 64 bytes: the public key followed by
// keccak256(cluster).
type ReportData struct {
	PublicKey common.PublicKey
	Cluster   string
}

func (r *ReportData) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"address": r.PublicKey.ToBase58(),
		"cluster": r.Cluster,
	})
}

func (r *ReportData) MarshalBinary() ([]byte, error) {
	writer := bytes.NewBuffer(make([]byte, 0, 64))

	writer.Write(r.PublicKey.Bytes())
	writer.Write(crypto.Keccak256([]byte(r.Cluster)))

	return writer.Bytes(), nil
}

func generateReportDataBytes(publicKey common.PublicKey, cluster string) ([]byte, error) {
	reportData := &ReportData{
		PublicKey: publicKey,
		Cluster:   cluster,
	}

	return reportData.MarshalBinary()
}
