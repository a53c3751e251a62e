package formatter

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

// CSV is the tabular formatter of spec.md §4.6, grounded on
// original_source/src/vpoller/helpers/csvhelper.py's CSVHelper.get: a
// header row sorted from the first result record's keys, one row per
// record with missing fields rendered as the literal string "None" and
// extra fields silently dropped — the behavior of Python's
// csv.DictWriter(restval='None', extrasaction='ignore').
//
// On a failed reply spec.md §6.6 is stricter than the original (which
// returns only reply.Msg): it calls for returning the reply untouched,
// so CSV matches every other formatter's failure behavior here rather
// than the original's narrower one.
type CSV struct{}

func (CSV) Name() string { return "csv" }

func (CSV) Run(_ wire.Request, reply wire.Reply) string {
	if reply.Success != 0 || len(reply.Result) == 0 {
		return string(reply.Marshal())
	}

	headers := make([]string, 0, len(reply.Result[0]))
	for k := range reply.Result[0] {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(headers); err != nil {
		return string(reply.Marshal())
	}
	for _, rec := range reply.Result {
		row := make([]string, len(headers))
		for i, h := range headers {
			v, ok := rec[h]
			if !ok || v == nil {
				row[i] = "None"
				continue
			}
			row[i] = fmt.Sprint(v)
		}
		if err := w.Write(row); err != nil {
			return string(reply.Marshal())
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return string(reply.Marshal())
	}
	return sb.String()
}
