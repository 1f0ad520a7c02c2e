package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/resourcegraph/internal/graph"
)

// errorLevel represents the severity of an error message
type errorLevel int

const (
	levelError errorLevel = iota
	levelWarning
)

// errorOptions configures the error message formatting
type errorOptions struct {
	Level        errorLevel
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// formatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ RESOURCE NOT FOUND: todo-itmes
//	   Cannot find resource 'todo-itmes'.
//
//	   Did you mean: todo-items?
//
//	   → See all resources: resourcegraph inspect
//	   → Get help: resourcegraph inspect --help
func formatError(opts errorOptions) string {
	var b strings.Builder

	// Determine colors and symbol based on level
	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case levelError:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "❌"
	case levelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	}

	// Disable colors if requested
	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	// Header line with context
	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	// Problem description with indentation
	if opts.Problem != "" && opts.Context != "" {
		bodyColor.Fprintf(&b, "   %s\n", opts.Problem)
	}

	// Consequence (if provided)
	if opts.Consequence != "" {
		b.WriteString("\n")
		bodyColor.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	// Suggestions
	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	// Help commands
	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// formatSuccess creates a success message
func formatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, formatSuccess(message, noColor))
}

// ResourceNotFoundError creates a standardized resource not found error
func ResourceNotFoundError(resourceName string, suggestions []string, noColor bool) string {
	opts := errorOptions{
		Level:       levelError,
		Context:     "RESOURCE NOT FOUND",
		Problem:     fmt.Sprintf("Cannot find resource '%s'.", resourceName),
		Suggestions: suggestions,
		HelpCommands: []string{
			"See all resources: resourcegraph inspect",
			"Get help: resourcegraph inspect --help",
		},
		NoColor: noColor,
	}
	return formatError(opts)
}

// GraphBuildError formats a failed graph build. Build errors that name a
// resource and field are shown with that location.
func GraphBuildError(err error, noColor bool) string {
	problem := err.Error()
	var consequence string

	var buildErr *graph.BuildError
	if errors.As(err, &buildErr) {
		problem = buildErr.Message
		if buildErr.Err != nil {
			problem = buildErr.Err.Error() + ": " + buildErr.Message
		}
		if buildErr.Resource != "" {
			location := buildErr.Resource
			if buildErr.Field != "" {
				location += "." + buildErr.Field
			}
			consequence = "Declared at: " + location
		}
	}

	opts := errorOptions{
		Level:       levelError,
		Context:     "GRAPH BUILD FAILED",
		Problem:     problem,
		Consequence: consequence,
		HelpCommands: []string{
			"Check declarations: resourcegraph validate",
			"Get help: resourcegraph validate --help",
		},
		NoColor: noColor,
	}
	return formatError(opts)
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	opts := errorOptions{
		Level:   levelError,
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"View config: cat resourcegraph.yaml",
			"Get help: resourcegraph --help",
		},
		NoColor: noColor,
	}
	return formatError(opts)
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	opts := errorOptions{
		Level:   levelWarning,
		Problem: message,
		NoColor: noColor,
	}
	return formatError(opts)
}
