package table

// ForestTypeNames maps forest-group codes to descriptive names.
var ForestTypeNames = map[int]string{
	100: "White/Red/Jack Pine",
	120: "Spruce/Fir",
	140: "Longleaf/Slash Pine",
	160: "Loblolly/Shortleaf Pine",
	180: "Pinyon/Juniper",
	400: "Oak/Pine",
	500: "Oak/Hickory",
	600: "Oak/Gum/Cypress",
	700: "Elm/Ash/Cottonwood",
	800: "Maple/Beech/Birch",
	980: "Tropical Hardwoods",
	990: "Exotic Hardwoods",
}

// RemapForestTypes names every row's forest code by exact match. Rows already
// named are left alone, so the remap is idempotent. Codes absent from
// ForestTypeNames, and samples that were not integers, pass through unnamed;
// the number of such rows is returned.
func RemapForestTypes(t *Table) int {
	unmapped := 0
	t.Each(func(o *Observation) {
		if o.ForestType.Missing || o.ForestType.Name != "" {
			return
		}
		if o.ForestType.Invalid {
			unmapped++
			return
		}
		if name, ok := ForestTypeNames[o.ForestType.Code]; ok {
			o.ForestType.Name = name
			return
		}
		unmapped++
	})
	return unmapped
}
