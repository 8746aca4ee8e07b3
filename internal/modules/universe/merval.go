// Package universe holds the hard-coded MERVAL ticker tables each fetcher
// walks through. Order matters: it is the order of the run reports and of
// the consolidated fundamentals file.
package universe

// Security is one entry of a ticker table
type Security struct {
	Symbol string // Symbol as the provider expects it
	Name   string // Display name written to the CSVs
	URL    string // Provider page, when the provider is page-based
}

// YahooADRs are the US-listed ADRs of MERVAL companies. Yahoo stopped
// serving most .BA symbols, the ADRs still answer (prices in USD).
var YahooADRs = []Security{
	{Symbol: "GGAL", Name: "Grupo Galicia (ADR USA - de GGAL.BA)"},
	{Symbol: "BMA", Name: "Banco Macro (ADR USA - de BMA.BA)"},
	{Symbol: "YPF", Name: "YPF (ADR USA - de YPFD.BA)"},
	{Symbol: "LOMA", Name: "Loma Negra (ADR USA - de LOMA.BA)"},
	{Symbol: "CEPU", Name: "Central Puerto (ADR USA - de CEPU.BA)"},
	{Symbol: "AGRO", Name: "Adecoagro (ADR USA - de AGRO.BA)"},
	{Symbol: "EDN", Name: "Edenor (ADR USA - de EDN.BA)"},
	{Symbol: "SUPV", Name: "Grupo Supervielle (ADR USA - de SUPV.BA)"},
	{Symbol: "BBAR", Name: "BBVA Argentina (ADR USA - de BBAR.BA)"},
	{Symbol: "PAM", Name: "Pampa Energía (ADR USA - de PAMP.BA)"},
}

// Bolsamania lists the local tickers with their historical-price pages
var Bolsamania = []Security{
	{Symbol: "GGAL", Name: "Grupo Galicia", URL: "https://www.bolsamania.com/acciones/ggal/historico-precios"},
	{Symbol: "YPFD", Name: "YPF", URL: "https://www.bolsamania.com/acciones/ypfd/historico-precios"},
	{Symbol: "BMA", Name: "Banco Macro", URL: "https://www.bolsamania.com/acciones/bma/historico-precios"},
	{Symbol: "LOMA", Name: "Loma Negra", URL: "https://www.bolsamania.com/acciones/loma/historico-precios"},
	{Symbol: "CEPU", Name: "Central Puerto", URL: "https://www.bolsamania.com/acciones/cepu/historico-precios"},
	{Symbol: "EDN", Name: "Edenor", URL: "https://www.bolsamania.com/acciones/edn/historico-precios"},
	{Symbol: "SUPV", Name: "Grupo Supervielle", URL: "https://www.bolsamania.com/acciones/supv/historico-precios"},
	{Symbol: "PAMP", Name: "Pampa Energía", URL: "https://www.bolsamania.com/acciones/pamp/historico-precios"},
	{Symbol: "ALUA", Name: "Aluar", URL: "https://www.bolsamania.com/acciones/alua/historico-precios"},
	{Symbol: "BBAR", Name: "BBVA Argentina", URL: "https://www.bolsamania.com/acciones/bbar/historico-precios"},
}

// Investing lists the Investing.com equity pages
var Investing = []Security{
	{Symbol: "GGAL", Name: "Grupo Financiero Galicia", URL: "https://es.investing.com/equities/grupo-financiero-galicia-sa-adr"},
	{Symbol: "YPFD", Name: "YPF", URL: "https://es.investing.com/equities/ypf-sociedad"},
	{Symbol: "BMA", Name: "Banco Macro", URL: "https://es.investing.com/equities/banco-macro-sa"},
	{Symbol: "LOMA", Name: "Loma Negra", URL: "https://es.investing.com/equities/loma-negra-compania-industrial"},
	{Symbol: "CEPU", Name: "Central Puerto", URL: "https://es.investing.com/equities/central-puerto-sa"},
	{Symbol: "EDN", Name: "Edenor", URL: "https://es.investing.com/equities/edenor-sa"},
	{Symbol: "SUPV", Name: "Grupo Supervielle", URL: "https://es.investing.com/equities/grupo-supervielle-sa"},
	{Symbol: "PAMP", Name: "Pampa Energía", URL: "https://es.investing.com/equities/pampa-energia-sa"},
	{Symbol: "ALUA", Name: "Aluar", URL: "https://es.investing.com/equities/aluar-aluminio-argentino-saic"},
	{Symbol: "BBAR", Name: "BBVA Argentina", URL: "https://es.investing.com/equities/bbva-argentina-sa"},
}
