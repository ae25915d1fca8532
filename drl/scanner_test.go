package drl

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestScan(t *testing.T) {
	data, err := os.ReadFile("../testdata/discount.drl")
	if !assert.NoError(t, err) {
		return
	}

	res, err := Scan("discount.drl", data)
	if !assert.NoError(t, err) {
		return
	}

	want := &Resource{
		Path:    "discount.drl",
		Package: "org.acme.rules",
		Unit:    "DiscountUnit",
		Imports: []string{"org.acme.Order"},
		Rules:   []string{"Gold customer", "Silver customer"},
		Queries: []string{"FindOrders"},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("unexpected resource (-want +got):\n%s", diff)
	}
	assert.Equal(t, "DiscountUnit", res.UnitName())
}

func TestScanUnitFromPackage(t *testing.T) {
	res, err := Scan("a.drl", []byte("package org.acme.pricing\nrule R when then end\n"))
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, "pricing", res.UnitName())
	assert.Equal(t, []string{"R"}, res.Rules)
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unterminated rule", `package a; rule "x" when then`},
		{"unterminated string", `package a; rule "x`},
		{"unterminated comment", `package a; /* rule`},
		{"missing package name", `package ;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scan("bad.drl", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}
