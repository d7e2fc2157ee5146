package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// Columnas reconocidas en la cabecera (sin distinguir mayúsculas).
const (
	colName     = "nombre"
	colCategory = "categoria"
	colPrice    = "precio"
	colCost     = "costo"
	colStock    = "stock"
	colMin      = "minimo"
	colPack     = "paquete"
	colCase     = "bulto"
)

// decoderFor devuelve el lector que convierte a UTF-8 según la codificación del archivo.
func decoderFor(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf8", "utf-8":
		return r, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("codificación no soportada: %s", encoding)
}

// ParseCatalog lee un CSV de productos. La primera fila es la cabecera; nombre y
// precio son obligatorios. Acepta ';' o ',' como separador según la cabecera.
func ParseCatalog(r io.Reader, encoding string) ([]inventory.CreateProductInput, error) {
	src, err := decoderFor(r, encoding)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("leer catálogo: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	cr := csv.NewReader(strings.NewReader(text))
	if first, _, _ := strings.Cut(text, "\n"); strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colName, colPrice} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("falta la columna %q", required)
		}
	}

	var out []inventory.CreateProductInput
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		row := record{cols: cols, values: rec}
		if row.get(colName) == "" {
			continue
		}
		in, err := row.product()
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		out = append(out, in)
	}
	return out, nil
}

type record struct {
	cols   map[string]int
	values []string
}

func (r record) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// amount interpreta la celda como decimal; vacía es cero. La coma decimal se acepta
// si no hay punto.
func (r record) amount(col string) (decimal.Decimal, error) {
	v := r.get(col)
	if v == "" {
		return decimal.Zero, nil
	}
	if !strings.Contains(v, ".") {
		v = strings.ReplaceAll(v, ",", ".")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: valor inválido %q", col, r.get(col))
	}
	return d, nil
}

func (r record) product() (inventory.CreateProductInput, error) {
	in := inventory.CreateProductInput{
		Name:     r.get(colName),
		Category: r.get(colCategory),
	}
	var err error
	if in.Price, err = r.amount(colPrice); err != nil {
		return in, err
	}
	if in.Cost, err = r.amount(colCost); err != nil {
		return in, err
	}
	if in.InitialStock, err = r.amount(colStock); err != nil {
		return in, err
	}
	if in.MinStock, err = r.amount(colMin); err != nil {
		return in, err
	}
	pack, err := r.amount(colPack)
	if err != nil {
		return in, err
	}
	caseContents, err := r.amount(colCase)
	if err != nil {
		return in, err
	}
	if pack.IsPositive() {
		in.Hierarchy.Pack = entity.UnitLevel{Enabled: true, Contents: pack}
	}
	if caseContents.IsPositive() {
		in.Hierarchy.Case = entity.UnitLevel{Enabled: true, Contents: caseContents}
	}
	return in, nil
}

// categories nombres de categoría distintos, en orden de aparición.
func categories(items []inventory.CreateProductInput) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	return out
}
