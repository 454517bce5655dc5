/*
 * Copyright (C) 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not
 * use this file except in compliance with the License. You may obtain a copy of
 * the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
 * WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
 * License for the specific language governing permissions and limitations under
 * the License.
 */

package repository

import (
	"bytes"
	"strings"
	"text/template"
)

const (
	// keys of the values substituted into the statement templates
	tableKey       = "Table"
	columnsKey     = "Columns"
	conditionsKey  = "Conditions"
	assignmentsKey = "Assignments"
	ttlKey         = "TTL"
	ifExistsKey    = "IfExists"

	insertTemplate = `INSERT INTO {{.Table}} ({{Join .Columns ", "}}) VALUES ({{BindMarkers .Columns ", "}})` +
		`{{if .TTL}} USING TTL ?{{end}};`
	updateTemplate = `UPDATE {{.Table}} SET {{Equalities .Assignments ", "}}` +
		`{{Where .Conditions}}{{Equalities .Conditions " AND "}}{{if .IfExists}} IF EXISTS{{end}};`
	selectTemplate = `SELECT {{Join .Columns ", "}} FROM {{.Table}}` +
		`{{Where .Conditions}}{{Equalities .Conditions " AND "}};`
	countTemplate = `SELECT count(*) FROM {{.Table}}` +
		`{{Where .Conditions}}{{Equalities .Conditions " AND "}};`
	deleteTemplate   = `DELETE FROM {{.Table}}{{Where .Conditions}}{{Equalities .Conditions " AND "}};`
	truncateTemplate = `TRUNCATE {{.Table}};`
)

var (
	funcMap = template.FuncMap{
		"Join":        strings.Join,
		"BindMarkers": bindMarkersFunc,
		"Equalities":  equalitiesFunc,
		"Where":       whereFunc,
	}

	insertTmpl   = template.Must(template.New("insert").Funcs(funcMap).Parse(insertTemplate))
	updateTmpl   = template.Must(template.New("update").Funcs(funcMap).Parse(updateTemplate))
	selectTmpl   = template.Must(template.New("select").Funcs(funcMap).Parse(selectTemplate))
	countTmpl    = template.Must(template.New("count").Funcs(funcMap).Parse(countTemplate))
	deleteTmpl   = template.Must(template.New("delete").Funcs(funcMap).Parse(deleteTemplate))
	truncateTmpl = template.Must(template.New("truncate").Funcs(funcMap).Parse(truncateTemplate))
)

// bindMarkersFunc renders one ? per column.
func bindMarkersFunc(columns []string, sep string) string {
	markers := make([]string, len(columns))
	for i := range columns {
		markers[i] = "?"
	}
	return strings.Join(markers, sep)
}

// equalitiesFunc renders "column = ?" for every column.
func equalitiesFunc(columns []string, sep string) string {
	equalities := make([]string, len(columns))
	for i, c := range columns {
		equalities[i] = c + " = ?"
	}
	return strings.Join(equalities, sep)
}

func whereFunc(conditions []string) string {
	if len(conditions) > 0 {
		return " WHERE "
	}
	return ""
}

// statementOptions holds the values substituted into a statement template.
type statementOptions map[string]any

type optFunc func(statementOptions)

func table(name string) optFunc {
	return func(opt statementOptions) {
		opt[tableKey] = name
	}
}

func columns(names []string) optFunc {
	return func(opt statementOptions) {
		opt[columnsKey] = names
	}
}

// conditions restricts the statement to rows whose columns equal the bound values.
func conditions(names []string) optFunc {
	return func(opt statementOptions) {
		opt[conditionsKey] = names
	}
}

func assignments(names []string) optFunc {
	return func(opt statementOptions) {
		opt[assignmentsKey] = names
	}
}

func usingTTL() optFunc {
	return func(opt statementOptions) {
		opt[ttlKey] = true
	}
}

func ifExists() optFunc {
	return func(opt statementOptions) {
		opt[ifExistsKey] = true
	}
}

func render(tmpl *template.Template, opts ...optFunc) (string, error) {
	var bb bytes.Buffer
	option := statementOptions{
		columnsKey:     []string(nil),
		conditionsKey:  []string(nil),
		assignmentsKey: []string(nil),
		ttlKey:         false,
		ifExistsKey:    false,
	}
	for _, opt := range opts {
		opt(option)
	}
	err := tmpl.Execute(&bb, option)
	return bb.String(), err
}
