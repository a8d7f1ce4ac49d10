package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/cfpqc/internal/linkcheck"
	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/pipeline"
	"github.com/ppiankov/cfpqc/internal/validate"
	"github.com/spf13/cobra"
)

var (
	linkTimeout time.Duration
	userAgent   string
	httpProxy   string
	httpsProxy  string
	noRobots    bool
)

// linkcheckCmd represents the linkcheck command
var linkcheckCmd = &cobra.Command{
	Use:   "linkcheck <draft>",
	Short: "Check that a draft's submit and credibility links resolve",
	Long: `Linkcheck requests the submission link, the journal credibility pages
and the other calls to action in a draft:
- HEAD first, GET when HEAD is refused
- Requests paced per domain, robots.txt respected
- 404/410 and unresolvable hosts are reported as dead

Exit status is 2 when any link is dead.

Example:
  cfpqc linkcheck draft.yaml
  cfpqc linkcheck draft.yaml --https-proxy http://proxy:3128 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runLinkcheck,
}

func init() {
	rootCmd.AddCommand(linkcheckCmd)

	linkcheckCmd.Flags().BoolVar(&jsonOutput, "json", false, "print link statuses as JSON")
	linkcheckCmd.Flags().DurationVar(&linkTimeout, "timeout", 0, "per-request timeout (default: linkcheck.timeout)")
	linkcheckCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (default: linkcheck.user_agent)")
	linkcheckCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	linkcheckCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	linkcheckCmd.Flags().BoolVar(&noRobots, "no-robots", false, "ignore robots.txt")
}

func runLinkcheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd, 0)
	defer cancel()

	drafts, err := pipeline.LoadDraft(args[0])
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg := linkConfig(a.cfg.LinkCheck)
	checker := linkcheck.New(cfg, a.cfg.Workers.Concurrency, a.log)
	classifier := validate.NewCredibilityClassifier(&a.cfg.Rules)

	dead := 0
	all := make(map[string][]model.LinkStatus)
	for _, d := range drafts {
		res := &pipeline.Result{Draft: d}
		res.Links = checker.Check(ctx, linkcheck.TargetsFor(d, classifier))
		dead += deadLinks(res)
		all[d.ID] = res.Links

		if !jsonOutput {
			if len(drafts) > 1 {
				fmt.Printf("# %s\n", d.ID)
			}
			if len(res.Links) == 0 {
				fmt.Fprintf(os.Stderr, "No links to check in %s\n", d.ID)
			}
			printLinks(res)
		}
	}

	if jsonOutput {
		if len(drafts) == 1 {
			if err := pipeline.WriteJSON(os.Stdout, all[drafts[0].ID]); err != nil {
				return err
			}
		} else if err := pipeline.WriteJSON(os.Stdout, all); err != nil {
			return err
		}
	}

	if dead > 0 {
		return ErrChecksFailed
	}
	return nil
}

// linkConfig applies command-line overrides
func linkConfig(cfg model.LinkCheckConfig) model.LinkCheckConfig {
	if linkTimeout > 0 {
		cfg.Timeout = linkTimeout
	}
	if userAgent != "" {
		cfg.UserAgent = userAgent
	}
	if httpProxy != "" {
		cfg.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTPSProxy = httpsProxy
	}
	if noRobots {
		cfg.RespectRobots = false
	}
	return cfg
}
