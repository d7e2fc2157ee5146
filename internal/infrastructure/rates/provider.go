// Package rates obtiene la tasa VES/USD de proveedores HTTP con breaker y rotación.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// Provider fuente de tasa.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (decimal.Decimal, error)
}

// HTTPProvider lee un documento JSON y extrae la tasa por una ruta de campos
// separada por puntos (ej. "bcv.price" o "current.usd").
type HTTPProvider struct {
	name   string
	url    string
	path   []string
	client *http.Client
}

// NewHTTPProvider construye el proveedor. client nil usa http.DefaultClient.
func NewHTTPProvider(name, url, path string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{name: name, url: url, path: strings.Split(path, "."), client: client}
}

// ParseSpec interpreta "nombre|url|ruta"; sin nombre usa la URL y sin ruta "price".
func ParseSpec(spec string, client *http.Client) (*HTTPProvider, error) {
	parts := strings.Split(spec, "|")
	switch len(parts) {
	case 1:
		return NewHTTPProvider(parts[0], parts[0], "price", client), nil
	case 2:
		return NewHTTPProvider(parts[0], parts[1], "price", client), nil
	case 3:
		return NewHTTPProvider(parts[0], parts[1], parts[2], client), nil
	}
	return nil, fmt.Errorf("proveedor de tasa inválido %q (nombre|url|ruta)", spec)
}

func (p *HTTPProvider) Name() string { return p.name }

// Fetch consulta el proveedor; una tasa no positiva es un error.
func (p *HTTPProvider) Fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", p.name, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", p.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%s: HTTP %d", p.name, resp.StatusCode)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return decimal.Zero, fmt.Errorf("%s: decodificar: %w", p.name, err)
	}
	v, err := lookup(doc, p.path)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", p.name, err)
	}
	if !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s: tasa no positiva %s", p.name, v)
	}
	return v, nil
}

func lookup(doc any, path []string) (decimal.Decimal, error) {
	cur := doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return decimal.Zero, fmt.Errorf("campo %q ausente", strings.Join(path, "."))
		}
		if cur, ok = m[key]; !ok {
			return decimal.Zero, fmt.Errorf("campo %q ausente", strings.Join(path, "."))
		}
	}
	switch v := cur.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(v), ",", "."))
	}
	return decimal.Zero, fmt.Errorf("campo %q no es numérico", strings.Join(path, "."))
}

// StaticProvider tasa fija cargada por configuración (respaldo manual).
type StaticProvider struct {
	Value decimal.Decimal
}

func (StaticProvider) Name() string { return "manual" }

func (p StaticProvider) Fetch(context.Context) (decimal.Decimal, error) {
	if !p.Value.IsPositive() {
		return decimal.Zero, fmt.Errorf("manual: sin tasa configurada")
	}
	return p.Value, nil
}
