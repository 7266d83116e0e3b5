package catalog

import (
	"hashminer-backend/internal/common/errors"
)

// MinerSpec is the static definition of a miner class. HashRate and Capacity
// are copied onto a miner at purchase time; the catalog is never consulted
// during accrual.
type MinerSpec struct {
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	HashRate float64 `json:"hash_rate"`
	Capacity float64 `json:"capacity"`
	Price    float64 `json:"price"`
}

// The seven shipped miner classes.
var specs = map[string]MinerSpec{
	"#01": {Type: "#01", Name: "Pickaxe S1", HashRate: 1, Capacity: 60, Price: 0},
	"#02": {Type: "#02", Name: "Rig Mini", HashRate: 2, Capacity: 150, Price: 120},
	"#03": {Type: "#03", Name: "Rig Duo", HashRate: 5, Capacity: 400, Price: 450},
	"#04": {Type: "#04", Name: "HashBox", HashRate: 10, Capacity: 900, Price: 1100},
	"#05": {Type: "#05", Name: "HashBox Pro", HashRate: 20, Capacity: 2000, Price: 2600},
	"#06": {Type: "#06", Name: "Ant Farm", HashRate: 45, Capacity: 5000, Price: 6400},
	"#07": {Type: "#07", Name: "Hydro Vault", HashRate: 100, Capacity: 12000, Price: 15000},
}

// Lookup resolves a miner class by type tag.
func Lookup(minerType string) (MinerSpec, error) {
	spec, ok := specs[minerType]
	if !ok {
		return MinerSpec{}, errors.NewUnknownMinerTypeError(minerType)
	}
	return spec, nil
}

// All returns every miner class, cheapest first.
func All() []MinerSpec {
	out := make([]MinerSpec, 0, len(specs))
	for _, t := range []string{"#01", "#02", "#03", "#04", "#05", "#06", "#07"} {
		out = append(out, specs[t])
	}
	return out
}
