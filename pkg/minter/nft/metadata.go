package nft

import (
	"encoding/binary"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Draft is the user-editable description of a token before it is minted.
type Draft struct {
	Name        string
	Symbol      string
	Description string
	// Royalty is a percentage, e.g. 5.5 for 5.5%.
	Royalty    float64
	Attributes []Attribute

	Image     []byte
	ImageName string
	ImageType string
}

// Clone returns a deep copy so that the pipeline never shares memory with
// a draft that may be edited later.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}

	clone := *d
	clone.Image = append([]byte(nil), d.Image...)
	clone.Attributes = append([]Attribute(nil), d.Attributes...)
	return &clone
}

// Fingerprint identifies the exact content of a draft. Any edit, including
// a different image, produces a different fingerprint. Every field is
// length-prefixed so adjacent values cannot run into each other.
func (d *Draft) Fingerprint() common.Hash {
	h := crypto.NewKeccakState()
	write := func(b []byte) {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(b)))
		h.Write(length[:])
		h.Write(b)
	}

	write([]byte(d.Name))
	write([]byte(d.Symbol))
	write([]byte(d.Description))

	var royalty [8]byte
	binary.BigEndian.PutUint64(royalty[:], math.Float64bits(d.Royalty))
	write(royalty[:])

	var count [8]byte
	binary.BigEndian.PutUint64(count[:], uint64(len(d.Attributes)))
	write(count[:])
	for _, attribute := range d.Attributes {
		write([]byte(attribute.TraitType))
		write([]byte(attribute.Value))
	}

	write([]byte(d.ImageName))
	write([]byte(d.ImageType))
	write(crypto.Keccak256(d.Image))

	var hash common.Hash
	h.Read(hash[:])
	return hash
}

type UploadedAsset struct {
	Uri         string `json:"uri"`
	ContentType string `json:"content_type"`
}

type MetadataFile struct {
	Type string `json:"type"`
	Uri  string `json:"uri"`
}

type MetadataProperties struct {
	Files []MetadataFile `json:"files"`
}

// MetadataDocument is the off-chain JSON the token's uri points to.
type MetadataDocument struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	Attributes  []Attribute        `json:"attributes"`
	Properties  MetadataProperties `json:"properties"`

	// Uri is where the document was uploaded; it is not part of the document.
	Uri string `json:"-"`
}

// ComposeMetadata builds the document for a draft whose image was uploaded
// as asset. Both image references are taken from asset.Uri.
func ComposeMetadata(draft *Draft, asset *UploadedAsset) MetadataDocument {
	attributes := draft.Attributes
	if attributes == nil {
		attributes = []Attribute{}
	}

	return MetadataDocument{
		Name:        draft.Name,
		Description: draft.Description,
		Image:       asset.Uri,
		Attributes:  append([]Attribute(nil), attributes...),
		Properties: MetadataProperties{
			Files: []MetadataFile{
				{Type: asset.ContentType, Uri: asset.Uri},
			},
		},
	}
}
