// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package manifest

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Row is one logical row of a table, keyed by column name. Values are JSON
// scalars: string, bool, float64 (or any integer type when constructed in
// memory), or nil.
type Row map[string]interface{}

// Column describes one column of a table schema.
type Column struct {
	Name string `json:"name"`
	// Type is informational ("string", "long", "double", "boolean"); rows
	// are dynamically typed and only NotNull and check constraints are
	// enforced on write.
	Type    string `json:"type"`
	NotNull bool   `json:"notNull,omitempty"`
}

// Schema is the ordered column list of a table.
type Schema []Column

// CheckOp is a comparison operator of a check constraint.
type CheckOp string

// Check constraint operators.
const (
	CheckEQ CheckOp = "="
	CheckNE CheckOp = "!="
	CheckLT CheckOp = "<"
	CheckLE CheckOp = "<="
	CheckGT CheckOp = ">"
	CheckGE CheckOp = ">="
)

// CheckConstraint is a pre-parsed single-column check constraint. Expression
// parsing happens upstream of this package; constraints arrive already
// decomposed into column, operator and literal.
type CheckConstraint struct {
	Name   string      `json:"name"`
	Column string      `json:"column"`
	Op     CheckOp     `json:"op"`
	Value  interface{} `json:"value"`
}

// TableMetadata describes a table: identity, schema, partitioning and row
// constraints. It travels through the log as a metadata Record; the latest
// one wins during snapshot reconstruction.
type TableMetadata struct {
	ID               string            `json:"id"`
	Name             string            `json:"name,omitempty"`
	Schema           Schema            `json:"schema"`
	PartitionColumns []string          `json:"partitionColumns,omitempty"`
	Constraints      []CheckConstraint `json:"constraints,omitempty"`
}

// IsPartitionColumn reports whether name is a declared partition column.
func (m *TableMetadata) IsPartitionColumn(name string) bool {
	for _, c := range m.PartitionColumns {
		if c == name {
			return true
		}
	}
	return false
}

// ValidateRow checks a row against the schema's not-null columns and the
// table's check constraints. It returns the first violation found.
func (m *TableMetadata) ValidateRow(row Row) error {
	for i := range m.Schema {
		col := &m.Schema[i]
		if !col.NotNull {
			continue
		}
		if v, ok := row[col.Name]; !ok || v == nil {
			return errors.Newf("manifest: null value in non-null column %q", col.Name)
		}
	}
	for i := range m.Constraints {
		c := &m.Constraints[i]
		v, ok := row[c.Column]
		if !ok || v == nil {
			// Null values are vacuously accepted by check constraints;
			// nullability is governed by NotNull alone.
			continue
		}
		cmp, err := compareValues(v, c.Value)
		if err != nil {
			return errors.Wrapf(err, "manifest: check constraint %q", c.Name)
		}
		if !checkHolds(c.Op, cmp) {
			return errors.Newf("manifest: row violates check constraint %q (%s %s %v)",
				c.Name, c.Column, c.Op, c.Value)
		}
	}
	return nil
}

func checkHolds(op CheckOp, cmp int) bool {
	switch op {
	case CheckEQ:
		return cmp == 0
	case CheckNE:
		return cmp != 0
	case CheckLT:
		return cmp < 0
	case CheckLE:
		return cmp <= 0
	case CheckGT:
		return cmp > 0
	case CheckGE:
		return cmp >= 0
	}
	return false
}

// compareValues orders two scalar values of compatible kinds. Numeric kinds
// compare numerically regardless of Go type; strings lexically; booleans
// with false < true.
func compareValues(a, b interface{}) (int, error) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, errors.Newf("cannot compare %T with %T", a, b)
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, errors.Newf("cannot compare %T with %T", a, b)
		}
		return strings.Compare(av, bv), nil
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, errors.Newf("cannot compare %T with %T", a, b)
		}
		switch {
		case av == bv:
			return 0, nil
		case !av:
			return -1, nil
		}
		return 1, nil
	}
	return 0, errors.Newf("unsupported value type %T", a)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// CanonicalPartition renders partition values as "col=value" pairs joined by
// "/", ordered by column name. Two files share a partition iff their
// canonical strings are equal. Empty for unpartitioned files.
func CanonicalPartition(pv map[string]string) string {
	if len(pv) == 0 {
		return ""
	}
	cols := make([]string, 0, len(pv))
	for c := range pv {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	var sb strings.Builder
	for i, c := range cols {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(c)
		sb.WriteByte('=')
		sb.WriteString(pv[c])
	}
	return sb.String()
}

// SamePartition reports whether two partition value maps are equal.
func SamePartition(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
