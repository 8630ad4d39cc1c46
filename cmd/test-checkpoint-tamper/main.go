// Test program to demonstrate checkpoint tamper detection
// This shows upstream authentication, receipt production, and offline
// verification working end to end with an ephemeral key, no network needed
package main

import (
	"fmt"

	"github.com/veridex/veridex/internal/canon"
	"github.com/veridex/veridex/internal/checkpoint"
	"github.com/veridex/veridex/internal/keys"
	"github.com/veridex/veridex/internal/model"
)

func main() {
	fmt.Println("=== Checkpoint Tamper Detection Test ===")
	fmt.Println()

	pub, priv, err := keys.GenerateEd25519()
	if err != nil {
		fmt.Printf("generate key: %v\n", err)
		return
	}
	signer, err := keys.NewEd25519Signer(priv)
	if err != nil {
		fmt.Printf("wrap signer: %v\n", err)
		return
	}
	verifier, err := keys.NewEd25519Verifier(pub)
	if err != nil {
		fmt.Printf("wrap verifier: %v\n", err)
		return
	}

	// A canned upstream payload in the messages shape
	payload := map[string]any{
		"messages": []any{
			map[string]any{"role": "user", "content": "What causes tides?"},
			map[string]any{"role": "assistant", "content": "The moon's gravity pulls on the oceans. " +
				"Therefore coastal water levels likely rise and fall twice a day. " +
				"I think tide pools are fascinating."},
		},
		"model":      "demo-model",
		"created_at": "2025-06-01T12:00:00Z",
	}

	upstreamKey := []byte("demo-upstream-key")
	mac := checkpoint.HMACHex(upstreamKey, canon.Canonicalize(checkpoint.Normalize(payload)))

	runner := checkpoint.NewRunner(checkpoint.RunnerConfig{
		Signer:      signer,
		Verifier:    verifier,
		UpstreamKey: upstreamKey,
		Producer:    "test-checkpoint-tamper",
		Notes:       "demo run",
	})

	outcome, err := runner.Run(payload, mac)
	if err != nil {
		fmt.Printf("protocol error: %v\n", err)
		return
	}

	fmt.Println("Protocol checks:")
	for _, check := range outcome.Report.Checks {
		mark := "✓"
		if !check.Passed {
			mark = "✗"
		}
		fmt.Printf("  %s %-14s %s\n", mark, check.Name, check.Detail)
	}
	fmt.Printf("\nStatus: %s\n", outcome.Report.Status)

	if outcome.Master == nil || outcome.Pack == nil {
		return
	}
	fmt.Printf("Receipt: %s\n", outcome.Master.ReceiptID)
	fmt.Printf("Claims in evidence pack: %d\n", len(outcome.Pack.EliAssertions))

	// Tamper with the evidence pack and watch verification fail
	fmt.Println()
	fmt.Println("--- Tampering with the assistant text ---")
	tampered := *outcome.Pack
	tampered.Transcript.Messages = append([]model.Message(nil), outcome.Pack.Transcript.Messages...)
	tampered.Transcript.Messages[1].Content += " [edited]"

	result := checkpoint.VerifyOffline(*outcome.Master, tampered, verifier)
	if result.Valid {
		fmt.Println("  ✗ tampered pack unexpectedly verified")
	} else {
		fmt.Printf("  ⚠️  tamper detected: %s\n", result.Reason)
	}

	// The untouched pack still verifies
	result = checkpoint.VerifyOffline(*outcome.Master, *outcome.Pack, verifier)
	if result.Valid {
		fmt.Println("  ✓ original pack still verifies offline")
	} else {
		fmt.Printf("  ✗ original pack failed: %s\n", result.Reason)
	}
}
