// Package geninfo loads the generator registration list: DUID to station,
// region, fuel and capacity. The list changes a few times a year and ships
// as a CSV export, so it is imported on demand rather than ingested on the
// portal loop.
package geninfo

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridwatch/nemsync/internal/model"
	"github.com/gridwatch/nemsync/internal/store"
)

// ParseCSV decodes a generator list export. Column headers map to struct
// tags, so column order in the export does not matter. Rows without a DUID
// or with an unrecognized region are skipped and counted.
func ParseCSV(data []byte, aliases *Aliases) ([]model.GeneratorInfo, int, error) {
	dec, err := csvutil.NewDecoder(newCSVReader(data))
	if err != nil {
		return nil, 0, eris.Wrap(err, "geninfo: create decoder")
	}

	var raw []model.GeneratorInfo
	if err := dec.Decode(&raw); err != nil {
		return nil, 0, eris.Wrap(err, "geninfo: decode generator list")
	}

	return normalize(raw, aliases)
}

func normalize(raw []model.GeneratorInfo, aliases *Aliases) ([]model.GeneratorInfo, int, error) {
	var out []model.GeneratorInfo
	skipped := 0
	for _, g := range raw {
		g.DUID = strings.TrimSpace(g.DUID)
		if g.DUID == "" {
			skipped++
			continue
		}
		g.Region = model.NormalizeRegion(strings.TrimSpace(g.Region))
		if !model.ValidRegion(g.Region) {
			skipped++
			continue
		}
		if aliases != nil {
			g.FuelSource = aliases.Fuel(g.FuelSource)
			g.TechnologyType = aliases.Technology(g.TechnologyType)
		}
		out = append(out, g)
	}
	return out, skipped, nil
}

// ImportFile parses a generator list CSV and upserts it.
func ImportFile(ctx context.Context, st store.Store, path, aliasPath string) (int64, error) {
	var aliases *Aliases
	if aliasPath != "" {
		a, err := LoadAliases(aliasPath)
		if err != nil {
			return 0, err
		}
		aliases = a
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "geninfo: read %s", path)
	}

	recs, skipped, err := ParseCSV(data, aliases)
	if err != nil {
		return 0, err
	}

	n, err := st.UpsertGenerators(ctx, recs)
	if err != nil {
		return 0, eris.Wrap(err, "geninfo: upsert generators")
	}

	zap.L().Info("generator list imported",
		zap.String("file", path),
		zap.Int64("rows", n),
		zap.Int("skipped", skipped),
	)
	return n, nil
}

func newCSVReader(data []byte) *csv.Reader {
	// Strip a UTF-8 BOM; spreadsheet exports often carry one.
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))
	r.TrimLeadingSpace = true
	return r
}
