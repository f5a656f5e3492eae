// Package properties selects which attributes of a game entity changed since
// they were last sent and hands only those to a packet writer.
//
// Every entity type declares its synchronizable attributes once, either with
// typed accessors:
//
//	func (c *Character) DeclareProperties(d *properties.Declaration[*Character]) {
//		d.Int(PCHp, func(c *Character) int32 { return c.Hp })
//		d.String(PCName, func(c *Character) string { return c.Name })
//	}
//
// or with struct tags discovered by Declaration.Tagged:
//
//	type Monster struct {
//		Hp    int32   `prop:"100"`
//		Speed float32 `prop:"120,calculated"`
//	}
//
// A Registry builds the per-type Table on first use and shares it read-only
// with every instance. Each instance owns a Values cache holding what was
// last transmitted; Sync compares current values against it and emits the
// differences to a Sink. Integers and floats are both written as float32 on
// the wire, strings as length-prefixed text.
//
// Sync is not safe for concurrent use on the same entity; callers serialize
// per entity. The Registry itself is safe for concurrent use.
package properties
