// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sqlmap

import (
	"strings"

	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

// CreateTable returns the statements creating the table and indexes of td.
// The identifier property is the primary key.
func CreateTable(td *typedesc.TypeDescriptor) ([]string, error) {
	columns := make([]string, 0, len(td.Properties)+1)
	for _, prop := range td.Properties {
		column, err := ColumnType(prop.Type)
		if err != nil {
			return nil, Error.New("type %q property %q: %v", td.Name, prop.Name, err)
		}
		columns = append(columns, QuoteIdent(prop.Name)+" "+column)
	}
	columns = append(columns, "PRIMARY KEY ("+QuoteIdent(td.IDProperty)+")")

	table := QuoteIdent(td.Name)
	stmts := []string{"CREATE TABLE " + table + " (" + strings.Join(columns, ", ") + ")"}
	for _, index := range td.Indexes {
		create := "CREATE INDEX "
		if index.Unique {
			create = "CREATE UNIQUE INDEX "
		}
		name := QuoteIdent(td.Name + "_" + index.Property + "_idx")
		stmts = append(stmts, create+name+" ON "+table+" ("+QuoteIdent(index.Property)+")")
	}
	return stmts, nil
}

// Columns returns the quoted column list of td.
func Columns(td *typedesc.TypeDescriptor) string {
	names := make([]string, len(td.Properties))
	for i, prop := range td.Properties {
		names[i] = QuoteIdent(prop.Name)
	}
	return strings.Join(names, ", ")
}

// Insert returns the statement inserting an entry and its arguments.
func Insert(entry *typedesc.Entry) (string, []interface{}, error) {
	td := entry.Type
	args, err := bindAll(entry)
	if err != nil {
		return "", nil, err
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(td.Properties)), ", ")
	return "INSERT INTO " + QuoteIdent(td.Name) + " (" + Columns(td) + ") VALUES (" + marks + ")", args, nil
}

// Update returns the statement replacing every non-identifier column of an
// entry and its arguments. The identifier is the last argument.
func Update(entry *typedesc.Entry) (string, []interface{}, error) {
	td := entry.Type
	values, err := bindAll(entry)
	if err != nil {
		return "", nil, err
	}
	idPos := td.IDPosition()
	sets := make([]string, 0, len(td.Properties))
	args := make([]interface{}, 0, len(td.Properties))
	for pos, prop := range td.Properties {
		if pos == idPos {
			continue
		}
		sets = append(sets, QuoteIdent(prop.Name)+" = ?")
		args = append(args, values[pos])
	}
	args = append(args, values[idPos])
	if len(sets) == 0 {
		sets = append(sets, QuoteIdent(td.IDProperty)+" = "+QuoteIdent(td.IDProperty))
	}
	return "UPDATE " + QuoteIdent(td.Name) + " SET " + strings.Join(sets, ", ") +
		" WHERE " + QuoteIdent(td.IDProperty) + " = ?", args, nil
}

// Delete returns the statement deleting an entry by identifier.
func Delete(td *typedesc.TypeDescriptor, id interface{}) (string, []interface{}, error) {
	arg, err := BindValue(td.Properties[td.IDPosition()].Type, id)
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM " + QuoteIdent(td.Name) + " WHERE " + QuoteIdent(td.IDProperty) + " = ?", []interface{}{arg}, nil
}

// SelectByID returns the query selecting an entry by identifier.
func SelectByID(td *typedesc.TypeDescriptor, id interface{}) (string, []interface{}, error) {
	arg, err := BindValue(td.Properties[td.IDPosition()].Type, id)
	if err != nil {
		return "", nil, err
	}
	return "SELECT " + Columns(td) + " FROM " + QuoteIdent(td.Name) +
		" WHERE " + QuoteIdent(td.IDProperty) + " = ?", []interface{}{arg}, nil
}

// Select returns the query selecting the entries matching tmpl.
func Select(td *typedesc.TypeDescriptor, tmpl *typedesc.Template) (string, []interface{}, error) {
	where, err := TemplateWhere(tmpl)
	if err != nil {
		return "", nil, err
	}
	return "SELECT " + Columns(td) + " FROM " + QuoteIdent(td.Name) + where.SQL(), where.Args, nil
}

func bindAll(entry *typedesc.Entry) ([]interface{}, error) {
	td := entry.Type
	if len(entry.Values) != len(td.Properties) {
		return nil, Error.New("type %q expects %d values, got %d", td.Name, len(td.Properties), len(entry.Values))
	}
	args := make([]interface{}, len(entry.Values))
	for pos, v := range entry.Values {
		arg, err := BindValue(td.Properties[pos].Type, v)
		if err != nil {
			return nil, Error.New("type %q property %q: %v", td.Name, td.Properties[pos].Name, err)
		}
		args[pos] = arg
	}
	return args, nil
}

// ScanRow prepares destinations for one row of td and converts them into
// entry values after scanning.
func ScanRow(td *typedesc.TypeDescriptor) (dests []interface{}, values func() ([]interface{}, error), err error) {
	dests = make([]interface{}, len(td.Properties))
	for pos, prop := range td.Properties {
		if dests[pos], err = ScanDest(prop.Type); err != nil {
			return nil, nil, err
		}
	}
	return dests, func() ([]interface{}, error) {
		out := make([]interface{}, len(dests))
		for pos, dest := range dests {
			v, err := ScanValue(td.Properties[pos].Type, dest)
			if err != nil {
				return nil, err
			}
			out[pos] = v
		}
		return out, nil
	}, nil
}
