package main

import (
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pterm/pterm"

	"github.com/luca-patrignani/powchain/ledger"
	"github.com/luca-patrignani/powchain/pow"
)

const shortDigestLen = 16

func shortDigest(d string) string {
	if len(d) <= shortDigestLen {
		return d
	}
	return d[:shortDigestLen] + "..."
}

// chainRows renders blocks as table rows, header first.
func chainRows(blocks []*ledger.Block) pterm.TableData {
	rows := pterm.TableData{{"Index", "Timestamp", "Data", "Previous Digest", "Nonce", "Digest"}}
	for _, b := range blocks {
		data, err := b.Payload().Canonical()
		if err != nil {
			data = []byte("<unencodable>")
		}
		rows = append(rows, []string{
			strconv.FormatUint(b.Index(), 10),
			b.Timestamp().Format(time.RFC3339),
			string(data),
			shortDigest(b.PrevDigest()),
			strconv.FormatUint(b.Nonce(), 10),
			shortDigest(b.Digest()),
		})
	}
	return rows
}

func printChain(bc *ledger.Blockchain, dump bool) error {
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(chainRows(bc.Blocks())).Render(); err != nil {
		return err
	}
	if dump {
		for _, b := range bc.Blocks() {
			pterm.Println(spew.Sdump(b))
		}
	}
	return nil
}

func printVerdict(label string, res ledger.ValidationResult) {
	if res.Valid {
		pterm.Success.Printfln("%s: chain is valid", label)
		return
	}
	pterm.Error.Printfln("%s: %s", label, res)
}

func printReport(results []ledger.ValidationResult) {
	if len(results) == 0 {
		pterm.Success.Println("No violations")
		return
	}
	items := make([]pterm.BulletListItem, 0, len(results))
	for _, r := range results {
		items = append(items, pterm.BulletListItem{Level: 0, Text: r.String()})
	}
	_ = pterm.DefaultBulletList.WithItems(items).Render()
}

func miningSummary(b *ledger.Block, r *pow.Result) string {
	pbox := pterm.DefaultBox.WithLeftPadding(4).WithRightPadding(4).WithTopPadding(1).WithBottomPadding(1)
	return pbox.WithTitle(pterm.LightYellow("|BLOCK " + strconv.FormatUint(b.Index(), 10) + " MINED|")).WithTitleTopCenter().Sprintf(
		"Digest: %s\nNonce attempts needed: %d\nTime taken: %s\nHash rate: %.0f H/s",
		b.Digest(), r.Attempts, r.Elapsed.Round(time.Microsecond), r.HashRate())
}
