package static_analyzer

// ModelRequest describes what to analyze.
type ModelRequest struct {
	Target      string
	Solc        string
	SolcArgs    string
	FilterPaths []string
	SlitherRepo string
}
