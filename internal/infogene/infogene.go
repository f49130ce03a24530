// Package infogene implements the info_1 gene: a static, precomputed
// server-info JSON string describing the maintainer, credit rates, and the
// set of registered genes.
package infogene

import (
	"encoding/json"
	"fmt"

	"github.com/voxov/voxov/internal/config"
)

type rates struct {
	Time     int64 `json:"time"`
	SpaceDoc int64 `json:"space_doc"`
	SpaceObj int64 `json:"space_obj"`
	Traffic  int64 `json:"traffic"`
}

type info struct {
	Maintainer string   `json:"maintainer"`
	Rates      rates    `json:"rates"`
	Genes      []string `json:"genes"`
}

// Build renders the info_1 payload once at startup; Dispatch then always
// returns this same string regardless of uid or arg, matching the
// original gene's signature (it ignores both).
func Build(cfg *config.Config, geneIds []string) (string, error) {
	i := info{
		Maintainer: cfg.Maintainer,
		Rates: rates{
			Time:     cfg.TimeCost,
			SpaceDoc: cfg.SpaceCostDoc,
			SpaceObj: cfg.SpaceCostObj,
			Traffic:  cfg.TrafficCost,
		},
		Genes: geneIds,
	}
	b, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("building info payload: %w", err)
	}
	return string(b), nil
}

// Dispatch is the info_1 gene body: it ignores uid and arg and returns the
// precomputed payload.
func Dispatch(payload string) func(uid string, arg string) (string, error) {
	return func(uid string, arg string) (string, error) {
		return payload, nil
	}
}
