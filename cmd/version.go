package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodewee/img-to-doc/pkg/config"
	"github.com/nodewee/img-to-doc/pkg/logger"
	"github.com/nodewee/img-to-doc/pkg/ocr"
	"github.com/nodewee/img-to-doc/pkg/ocr/engines/builtin"
	"github.com/nodewee/img-to-doc/pkg/preprocess"
)

// Version information variables - set by main.go
var (
	version   = "dev"
	gitCommit = "none"
	buildTime = "unknown"
	buildBy   = "unknown"
)

// SetVersionInfo sets the version information from main.go
func SetVersionInfo(v, commit, buildTimeParam, buildByParam string) {
	version = v
	gitCommit = commit
	buildTime = buildTimeParam
	buildBy = buildByParam
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version, build and OCR backend information",
	Long: `Show the img-to-doc build, the preprocessing toolchain compiled in
(imaging, or OpenCV when built with -tags opencv) and which OCR engines can
run on this system.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfigWithEnvOverrides()
		reg := builtin.NewRegistry(cfg, logger.Discard())
		writeVersion(cmd.OutOrStdout(), reg)
	},
}

// writeVersion prints build details and the engine backends of reg
func writeVersion(w io.Writer, reg *ocr.Registry) {
	fmt.Fprintf(w, "🖼️  img-to-doc %s (%s)\n", version, gitCommit)
	fmt.Fprintf(w, "  Built:       %s by %s\n", buildTime, buildBy)
	fmt.Fprintf(w, "  Go:          %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  Preprocess:  %s\n", preprocess.DefaultToolchain().Name())

	var available, missing []string
	for _, info := range reg.List() {
		if info.Available {
			available = append(available, string(info.ID))
		} else {
			missing = append(missing, string(info.ID))
		}
	}
	fmt.Fprintf(w, "  Engines:     %s\n", listOrNone(available))
	if len(missing) > 0 {
		fmt.Fprintf(w, "  Unavailable: %s\n", strings.Join(missing, ", "))
	}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
