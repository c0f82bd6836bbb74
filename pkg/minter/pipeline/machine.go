package pipeline

import (
	"sync"
	"time"

	"github.com/NethermindEth/solmint/pkg/minter/mint"
	"github.com/NethermindEth/solmint/pkg/minter/nft"
)

// Machine tracks one draft and the state of its mint attempts. All fields are
// guarded by mu; at most one attempt runs at a time.
type Machine struct {
	mu sync.Mutex

	id        string
	draft     *nft.Draft
	state     State
	result    *mint.Result
	err       *Error
	updatedAt time.Time
}

type DraftView struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Description string          `json:"description"`
	Royalty     float64         `json:"royalty"`
	Attributes  []nft.Attribute `json:"attributes"`
	ImageName   string          `json:"image_name,omitempty"`
	ImageType   string          `json:"image_type,omitempty"`
	ImageSize   int             `json:"image_size"`
}

type Snapshot struct {
	ID        string       `json:"id"`
	State     State        `json:"state"`
	Draft     DraftView    `json:"draft"`
	Result    *mint.Result `json:"result,omitempty"`
	Error     *Error       `json:"error,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func NewMachine(id string, draft *nft.Draft) *Machine {
	if draft == nil {
		draft = &nft.Draft{}
	}

	return &Machine{
		id:        id,
		draft:     draft.Clone(),
		state:     StateIdle,
		updatedAt: time.Now(),
	}
}

func (m *Machine) ID() string {
	return m.id
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Draft() *nft.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft.Clone()
}

// UpdateDraft replaces the draft. The outcome of a finished attempt stays
// visible until the next submission.
func (m *Machine) UpdateDraft(draft *nft.Draft) error {
	if draft == nil {
		return nft.ErrNilDraft
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Busy() {
		return ErrMintInProgress
	}

	m.draft = draft.Clone()
	m.updatedAt = time.Now()
	return nil
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		ID:    m.id,
		State: m.state,
		Draft: DraftView{
			Name:        m.draft.Name,
			Symbol:      m.draft.Symbol,
			Description: m.draft.Description,
			Royalty:     m.draft.Royalty,
			Attributes:  append([]nft.Attribute{}, m.draft.Attributes...),
			ImageName:   m.draft.ImageName,
			ImageType:   m.draft.ImageType,
			ImageSize:   len(m.draft.Image),
		},
		Result:    m.result,
		Error:     m.err,
		UpdatedAt: m.updatedAt,
	}
}

// begin starts a new attempt and returns the draft copy the attempt works on.
func (m *Machine) begin() (*nft.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Busy() {
		return nil, ErrMintInProgress
	}

	m.state = StateValidating
	m.result = nil
	m.err = nil
	m.updatedAt = time.Now()

	return m.draft.Clone(), nil
}

// advance moves a running attempt forward. Backward moves are ignored.
func (m *Machine) advance(next State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if next <= m.state || next.Terminal() {
		return
	}

	m.state = next
	m.updatedAt = time.Now()
}

func (m *Machine) succeed(result *mint.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateSucceeded
	m.result = result
	m.err = nil
	m.updatedAt = time.Now()
}

func (m *Machine) fail(err *Error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateFailed
	m.result = nil
	m.err = err
	m.updatedAt = time.Now()
}
