package checkpoint

import (
	"time"

	"github.com/google/uuid"

	"github.com/veridex/veridex/internal/extract"
	"github.com/veridex/veridex/internal/keys"
	"github.com/veridex/veridex/internal/model"
)

// Protocol run statuses.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// RunnerConfig wires a protocol runner.
type RunnerConfig struct {
	Signer      keys.Signer
	Verifier    keys.Verifier
	UpstreamKey []byte          // Shared HMAC key for upstream authentication
	Producer    string          // Stamped into receipt metadata
	Notes       string          // Stamped into the evidence pack
	Tagger      *extract.Tagger // nil uses default tagging rules
}

// Runner executes the checkpoint protocol end to end for one upstream
// payload: authenticate, checkpoint, no-plaintext, self-test, offline
// verify. Every phase lands in the report as a named check.
type Runner struct {
	cfg RunnerConfig
}

func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{cfg: cfg}
}

// Outcome bundles the protocol report with whatever artifacts the run got
// far enough to produce. Master and Pack are nil when a phase before
// checkpointing failed.
type Outcome struct {
	Report model.ProtocolReport
	Master *model.MasterReceipt
	Pack   *model.EvidencePack
}

// Run drives all protocol phases against one upstream payload. A failed
// authentication halts the run; nothing downstream of a forged payload is
// worth computing. Later phases record their failure and stop as well,
// since each one feeds the next.
func (r *Runner) Run(payload any, upstreamMAC string) (*Outcome, error) {
	backend, err := LoadBackend()
	if err != nil {
		return nil, err
	}

	report := model.ProtocolReport{
		RunID:     uuid.NewString(),
		Status:    StatusFail,
		StartedAt: nowFunc().UTC().Format(time.RFC3339),
	}
	out := &Outcome{}
	finish := func() (*Outcome, error) {
		report.FinishedAt = nowFunc().UTC().Format(time.RFC3339)
		if report.Passed() {
			report.Status = StatusPass
		}
		out.Report = report
		return out, nil
	}
	record := func(name string, passed bool, detail string) {
		report.Checks = append(report.Checks, model.ProtocolCheck{Name: name, Passed: passed, Detail: detail})
	}

	transcript := Normalize(payload)
	payloadMap, ok := payload.(map[string]any)
	if !ok {
		payloadMap, _ = toMap(payload)
	}

	auth := Authenticate(payloadMap, transcript, r.cfg.UpstreamKey, upstreamMAC)
	if !auth.OK {
		record(model.CheckAuthenticate, false, auth.Reason)
		return finish()
	}
	record(model.CheckAuthenticate, true, "strategy "+auth.Strategy)

	artifacts, err := backend.Produce(transcript, Options{
		Signer:   r.cfg.Signer,
		Producer: r.cfg.Producer,
		Notes:    r.cfg.Notes,
		Tagger:   r.cfg.Tagger,
	})
	if err != nil {
		record(model.CheckCheckpoint, false, err.Error())
		return finish()
	}
	record(model.CheckCheckpoint, true, "receipt "+artifacts.Master.ReceiptID)
	out.Master = &artifacts.Master
	out.Pack = &artifacts.Pack

	if err := backend.CheckPlaintext(artifacts.Master); err != nil {
		record(model.CheckNoPlaintext, false, err.Error())
		return finish()
	}
	record(model.CheckNoPlaintext, true, "master receipt carries no transcript-bearing keys")

	if err := backend.SelfTest(artifacts.Master, artifacts.Pack, r.cfg.Verifier); err != nil {
		record(model.CheckSelfTest, false, err.Error())
		return finish()
	}
	record(model.CheckSelfTest, true, "tampered artifacts were rejected")
	artifacts.Master.Verification = model.Verification{
		SelfTestPassed: true,
		CheckedAt:      nowFunc().UTC().Format(time.RFC3339),
	}

	res := backend.VerifyOffline(artifacts.Master, artifacts.Pack, r.cfg.Verifier)
	detail := res.Reason
	if res.Valid {
		detail = "signature and content hash verified offline"
	}
	record(model.CheckOfflineVerify, res.Valid, detail)

	return finish()
}
