package checkpoint

import (
	"strings"
	"sync"

	"github.com/veridex/veridex/internal/keys"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/verr"
)

// Backend is the checkpoint capability surface as explicit function
// members. Callers go through a Backend rather than package functions so
// an incomplete implementation fails loudly at load time instead of
// panicking mid-protocol.
type Backend struct {
	Name           string
	Produce        func(model.Transcript, Options) (*Artifacts, error)
	VerifyOffline  func(model.MasterReceipt, model.EvidencePack, keys.Verifier) model.VerifyResult
	CheckPlaintext func(model.MasterReceipt) error
	SelfTest       func(model.MasterReceipt, model.EvidencePack, keys.Verifier) error
}

// Validate reports every missing member by name.
func (b *Backend) Validate() error {
	var missing []string
	if b.Produce == nil {
		missing = append(missing, "Produce")
	}
	if b.VerifyOffline == nil {
		missing = append(missing, "VerifyOffline")
	}
	if b.CheckPlaintext == nil {
		missing = append(missing, "CheckPlaintext")
	}
	if b.SelfTest == nil {
		missing = append(missing, "SelfTest")
	}
	if len(missing) > 0 {
		return verr.New(verr.KindState, "backend-incomplete", "backend %q missing members: %s", b.Name, strings.Join(missing, ", "))
	}
	return nil
}

var (
	backendMu     sync.Mutex
	activeBackend *Backend
)

// LoadBackend returns the active backend, initializing the built-in one on
// first use. The singleton is explicit so tests can swap and reset it.
func LoadBackend() (*Backend, error) {
	backendMu.Lock()
	defer backendMu.Unlock()
	if activeBackend != nil {
		return activeBackend, nil
	}
	b := builtinBackend()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	activeBackend = b
	return activeBackend, nil
}

// SetBackend swaps in a replacement after validating it.
func SetBackend(b *Backend) error {
	if err := b.Validate(); err != nil {
		return err
	}
	backendMu.Lock()
	defer backendMu.Unlock()
	activeBackend = b
	return nil
}

// ResetBackend drops the active backend so the next LoadBackend
// reinitializes from scratch.
func ResetBackend() {
	backendMu.Lock()
	defer backendMu.Unlock()
	activeBackend = nil
}

func builtinBackend() *Backend {
	return &Backend{
		Name:           "builtin",
		Produce:        Produce,
		VerifyOffline:  VerifyOffline,
		CheckPlaintext: CheckNoPlaintext,
		SelfTest:       SelfTest,
	}
}
