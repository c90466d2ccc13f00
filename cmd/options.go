package cmd

// Options holds the shared command-line options for the stargazer CLI.
type Options struct {
	Token     string
	Verbosity int

	// Extract options
	Format         string
	Output         string
	NoStargazers   bool
	NoForkers      bool
	MaxStargazers  int
	MaxForkers     int
	Detailed       bool
	ResolveEmails  bool
	Aggressive     bool
	Workers        int
	WaitForReset   bool
	NoCache        bool
}
