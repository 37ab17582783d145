// Package rescue recovers V5-era transaction archives that were never
// migrated to the V6/V7 flat-file bundle format: they survive only as
// gzipped tarballs of per-block JSON dumps, so this package decompresses
// and decodes them through the same warehouse.EntryFunctionDecoder boundary
// the V6/V7 path uses.
package rescue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/forensic-graph/warehouse/internal/warehouse"
)

// transactionViewV5 mirrors the shape of one entry in a V5 rescue JSON
// dump: a transaction's executed status, its sender/function/raw payload,
// and the microsecond block timestamp it landed in.
type transactionViewV5 struct {
	Hash          string `json:"hash"`
	VMStatus      string `json:"vm_status"`
	TimestampUsec *uint64 `json:"timestamp_usecs"`
	Transaction   struct {
		Type         string `json:"type"`
		Sender       string `json:"sender"`
		ModuleName   string `json:"module_name"`
		FunctionName string `json:"function_name"`
		// BytesHex is the BCS-encoded raw transaction bytes, hex-encoded
		// the way the rescue dumps serialize binary payloads.
		BytesHex string `json:"bytes"`
	} `json:"transaction"`
}

func (t transactionViewV5) isExecuted() bool {
	return strings.EqualFold(t.VMStatus, "executed")
}

func (t transactionViewV5) functionName() string {
	module := t.Transaction.ModuleName
	if module == "" {
		module = "none"
	}
	fn := t.Transaction.FunctionName
	if fn == "" {
		fn = "none"
	}
	return fmt.Sprintf("0x::%s::%s", module, fn)
}

// ExtractV5JSONRescue parses one rescue JSON file (an array of
// transactionViewV5 records), discards any transaction that did not
// execute successfully, and decodes every remaining one through decoder.
// It returns the decoded transactions plus every distinct function name
// observed, decoded or not.
func ExtractV5JSONRescue(path string, decoder warehouse.EntryFunctionDecoder) ([]warehouse.WarehouseTxMaster, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading rescue json %s: %w", path, err)
	}

	var views []transactionViewV5
	if err := json.Unmarshal(raw, &views); err != nil {
		return nil, nil, fmt.Errorf("parsing rescue json %s: %w", path, err)
	}

	executed := 0
	var uniqueFunctions []string
	var out []warehouse.WarehouseTxMaster

	for _, v := range views {
		if !v.isExecuted() {
			continue
		}
		executed++

		fn := v.functionName()
		if !contains(uniqueFunctions, fn) {
			uniqueFunctions = append(uniqueFunctions, fn)
		}

		payload := []byte(v.Transaction.BytesHex)
		label, entry, err := decoder.Decode(v.Transaction.Sender, fn, payload)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding rescue tx %s: %w", v.Hash, err)
		}

		switch label.(type) {
		case warehouse.Unknown, warehouse.Configuration, warehouse.Miner, nil:
			continue
		}

		var ts uint64
		if v.TimestampUsec != nil {
			ts = *v.TimestampUsec
		}

		out = append(out, warehouse.WarehouseTxMaster{
			TxHash:           v.Hash,
			Sender:           v.Transaction.Sender,
			Function:         fn,
			FrameworkVersion: warehouse.FrameworkV5,
			RelationLabel:    label,
			EntryFunction:    entry,
			BlockTimestamp:   ts,
			BlockDatetime:    time.UnixMicro(int64(ts)).UTC(),
		})
	}

	if len(views) > executed {
		// unsuccessful (aborted) transactions were present; they are
		// silently dropped, matching the rescue dump's own convention.
		_ = len(views) - executed
	}

	return out, uniqueFunctions, nil
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// ListV5JSONFiles finds every .json file recursively under dir — the
// files a .tgz rescue archive decompresses into.
func ListV5JSONFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing rescue json files under %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
