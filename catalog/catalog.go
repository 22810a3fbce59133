// Package catalog declares the logical names of the dashboard: which upstream
// variables they read and how they are derived.
package catalog

import (
	"github.com/etnz/finmon"
	"github.com/etnz/finmon/bcra"
	"github.com/etnz/finmon/bluelytics"
	"github.com/etnz/finmon/yahoo"
)

// Sources are the adapters the default names read from.
type Sources struct {
	BCRA       bcra.Client
	Bluelytics bluelytics.Evolution
	Yahoo      yahoo.Chart
}

// BCRA monetary variable ids.
const (
	IDReservas         = "1"
	IDTasaPolitica     = "6"
	IDBaseMonetaria    = "15"
	IDInflacionMensual = "27"
)

// Stocks are the Buenos Aires listed shares of the "acciones" name, by ticker.
var Stocks = []finmon.Descriptor{
	{Source: yahoo.Source, Variable: "YPFD.BA", Unit: "ARS", Label: "YPF"},
	{Source: yahoo.Source, Variable: "GGAL.BA", Unit: "ARS", Label: "Galicia"},
	{Source: yahoo.Source, Variable: "BMA.BA", Unit: "ARS", Label: "Banco Macro"},
	{Source: yahoo.Source, Variable: "MELI.BA", Unit: "ARS", Label: "MercadoLibre"},
}

var (
	inflacion     = finmon.Descriptor{Source: bcra.Source, Variable: IDInflacionMensual, Unit: "%", Label: "Inflación mensual"}
	tasa          = finmon.Descriptor{Source: bcra.Source, Variable: IDTasaPolitica, Unit: "% n.a.", Label: "Tasa de política monetaria"}
	reservas      = finmon.Descriptor{Source: bcra.Source, Variable: IDReservas, Unit: "MM USD", Label: "Reservas internacionales"}
	baseMonetaria = finmon.Descriptor{Source: bcra.Source, Variable: IDBaseMonetaria, Unit: "MM ARS", Label: "Base monetaria"}
	usdOficial    = finmon.Descriptor{Source: bcra.FXSource, Variable: "USD", Unit: "ARS/USD", Label: "Dólar oficial"}
	cnyOficial    = finmon.Descriptor{Source: bcra.FXSource, Variable: "CNY", Unit: "ARS/CNY", Label: "Yuan oficial"}
	usdBlue       = finmon.Descriptor{Source: bluelytics.Source, Variable: "Blue", Unit: "ARS/USD", Label: "Dólar blue"}
	usdOficialBL  = finmon.Descriptor{Source: bluelytics.Source, Variable: "Oficial", Unit: "ARS/USD", Label: "Dólar oficial (bluelytics)"}
	merval        = finmon.Descriptor{Source: yahoo.Source, Variable: "^MERV", Unit: "ARS", Label: "Merval"}
)

// Entries returns the default logical names.
func Entries() []finmon.Entry {
	stocks := make([]finmon.SeriesPlan, len(Stocks))
	for i, d := range Stocks {
		stocks[i] = finmon.Fetch{Descriptor: d}
	}
	baseUSD := finmon.RatioOf{
		Meta: finmon.Descriptor{Source: "derived", Variable: "base_usd", Unit: "MM USD", Label: "Base monetaria en dólares oficiales"},
		Num:  finmon.Fetch{Descriptor: baseMonetaria},
		Den:  finmon.Fetch{Descriptor: usdOficial},
	}

	return []finmon.Entry{
		{Name: "inflacion", Description: "Inflación mensual (BCRA)", Plan: finmon.Fetch{Descriptor: inflacion}},
		{Name: "tasa_politica_monetaria", Description: "Tasa de política monetaria (BCRA)", Plan: finmon.Fetch{Descriptor: tasa}},
		{Name: "reservas", Description: "Reservas internacionales en millones de USD (BCRA)", Plan: finmon.Fetch{Descriptor: reservas}},
		{Name: "reservas_mmusd", Description: "Reservas internacionales en miles de millones de USD", Plan: finmon.ScaleOf{
			Meta:   finmon.Descriptor{Source: "derived", Variable: "reservas_mmusd", Unit: "MMM USD", Label: "Reservas internacionales"},
			Of:     finmon.Fetch{Descriptor: reservas},
			Factor: 1.0 / 1000,
		}},
		{Name: "base_monetaria", Description: "Base monetaria en millones de pesos (BCRA)", Plan: finmon.Fetch{Descriptor: baseMonetaria}},
		{Name: "usd_oficial", Description: "Dólar oficial, media diaria de cotizaciones (BCRA)", Plan: finmon.Fetch{Descriptor: usdOficial}},
		{Name: "cny_oficial", Description: "Yuan oficial, media diaria de cotizaciones (BCRA)", Plan: finmon.Fetch{Descriptor: cnyOficial}},
		{Name: "usd_blue", Description: "Dólar blue, punto medio compra/venta (bluelytics)", Plan: finmon.Fetch{Descriptor: usdBlue}},
		{Name: "usd_oficial_bluelytics", Description: "Dólar oficial, punto medio compra/venta (bluelytics)", Plan: finmon.Fetch{Descriptor: usdOficialBL}},
		{Name: "tipo_cambio", Description: "Dólar oficial y blue", Plan: finmon.Merge{
			Mode:    finmon.Outer,
			Members: []finmon.SeriesPlan{finmon.Fetch{Descriptor: usdOficial}, finmon.Fetch{Descriptor: usdBlue}},
		}},
		{Name: "merval", Description: "Índice Merval en pesos", Plan: finmon.Fetch{Descriptor: merval}},
		{Name: "merval_usd", Description: "Índice Merval en dólares blue", Plan: finmon.RatioOf{
			Meta: finmon.Descriptor{Source: "derived", Variable: "merval_usd", Unit: "USD", Label: "Merval en USD"},
			Num:  finmon.Fetch{Descriptor: merval},
			Den:  finmon.Fetch{Descriptor: usdBlue},
		}},
		{Name: "base_usd", Description: "Base monetaria en dólares oficiales", Plan: baseUSD},
		{Name: "brecha", Description: "Brecha cambiaria, dólar blue menos oficial", Plan: finmon.DifferenceOf{
			Meta: finmon.Descriptor{Source: "derived", Variable: "brecha", Unit: "ARS/USD", Label: "Brecha cambiaria"},
			A:    finmon.Fetch{Descriptor: usdBlue},
			B:    finmon.Fetch{Descriptor: usdOficial},
		}},
		{Name: "respaldo", Description: "Respaldo cambiario: base en dólares, reservas y tipos de cambio", Plan: finmon.Merge{
			Mode: finmon.Inner,
			Members: []finmon.SeriesPlan{
				baseUSD,
				finmon.Fetch{Descriptor: reservas},
				finmon.Fetch{Descriptor: usdOficial},
			},
			Optional: []finmon.SeriesPlan{finmon.Fetch{Descriptor: usdBlue}},
		}},
		{Name: "acciones", Description: "Acciones argentinas, base 100 al primer día común", Plan: finmon.Rebased{Members: stocks}},
	}
}

// Default returns the registry of the default logical names over s.
func Default(s Sources) (*finmon.Registry, error) {
	return finmon.NewRegistry(map[string]finmon.Fetcher{
		bcra.Source:       bcra.Indicators{Client: s.BCRA},
		bcra.FXSource:     bcra.Quotations{Client: s.BCRA},
		bluelytics.Source: s.Bluelytics,
		yahoo.Source:      s.Yahoo,
	}, Entries()...)
}
