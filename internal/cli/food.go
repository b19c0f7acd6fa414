package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"yada/internal/adapter/analyzer"
	"yada/internal/adapter/fs"
	"yada/internal/adapter/source"
	"yada/internal/domain"
	"yada/internal/port"
	"yada/internal/usecase"
)

var (
	foodID         string
	foodName       string
	foodKeywords   string
	foodCalories   int
	foodComponents []string
	foodMatchAll   bool
	foodJSON       bool
	ingestS3       string
	ingestSample   bool
	ingestDummy    bool
)

var foodCmd = &cobra.Command{
	Use:   "food",
	Short: "Manage the food catalog",
}

var foodAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a basic food with a fixed calorie value",
	Long: `Add a basic food. An existing food with the same ID is replaced.

Examples:
  yada food add --name "Greek Yogurt" --calories 120 --keywords yogurt,dairy
  yada food add --id oats --name "Rolled Oats" --calories 150`,
	Args: cobra.NoArgs,
	RunE: runFoodAdd,
}

var foodCompositeCmd = &cobra.Command{
	Use:   "composite",
	Short: "Add a food made of other foods",
	Long: `Add a composite food whose calories are the sum of its components.
Each --component is ID:SERVINGS and refers to another food.

Example:
  yada food composite --name "PB Toast" -c bread:1 -c pb:1`,
	Args: cobra.NoArgs,
	RunE: runFoodComposite,
}

var foodSearchCmd = &cobra.Command{
	Use:   "search [keywords...]",
	Short: "Find foods by keyword",
	Long: `Find foods whose keywords contain any of the given words (case-insensitive
substring match). With --all every word must match. No words lists everything.`,
	RunE: runFoodSearch,
}

var foodListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every food",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, false, func(ctx context.Context, s *usecase.Session) error {
			return printFoods(cmd.OutOrStdout(), s.Catalog().All())
		})
	},
}

var foodShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one food and its components",
	Args:  cobra.ExactArgs(1),
	RunE:  runFoodShow,
}

var foodIngestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Load foods from YAML/JSON files, S3 or the built-in sets",
	Long: `Load food documents and resolve composite foods.

A path may be one file or a directory; directories are filtered with the
ingest.includes and ingest.excludes globs from the config.

Document format:
  foods:
    - {id: bread, name: Bread Slice, keywords: [bread], calories: 80}
    - id: toast
      name: Buttered Toast
      components: [{id: bread, servings: 1}, {id: butter, servings: 1}]

Examples:
  yada food ingest ./foods
  yada food ingest --s3 s3://my-bucket/foods.yaml
  yada food ingest --sample`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFoodIngest,
}

var foodResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Recompute composite calorie values",
	Long: `Run one more resolution pass. In single-pass mode composites built on other
composites may need a second pass to settle.`,
	Args: cobra.NoArgs,
	RunE: runFoodResolve,
}

func init() {
	rootCmd.AddCommand(foodCmd)
	foodCmd.AddCommand(foodAddCmd, foodCompositeCmd, foodSearchCmd, foodListCmd, foodShowCmd, foodIngestCmd, foodResolveCmd)

	for _, c := range []*cobra.Command{foodAddCmd, foodCompositeCmd} {
		c.Flags().StringVar(&foodID, "id", "", "food ID (default derived from the name)")
		c.Flags().StringVar(&foodName, "name", "", "display name (required)")
		c.Flags().StringVarP(&foodKeywords, "keywords", "k", "", "comma or space separated keywords (default from the name)")
		c.MarkFlagRequired("name")
	}
	foodAddCmd.Flags().IntVar(&foodCalories, "calories", -1, "calories per serving (required)")
	foodAddCmd.MarkFlagRequired("calories")
	foodCompositeCmd.Flags().StringArrayVarP(&foodComponents, "component", "c", nil, "component as ID:SERVINGS (repeatable)")
	foodCompositeCmd.MarkFlagRequired("component")

	foodSearchCmd.Flags().BoolVar(&foodMatchAll, "all", false, "require every keyword to match")
	for _, c := range []*cobra.Command{foodSearchCmd, foodListCmd, foodShowCmd} {
		c.Flags().BoolVar(&foodJSON, "json", false, "output as JSON")
	}

	foodIngestCmd.Flags().StringVar(&ingestS3, "s3", "", "read one document from s3://bucket/key")
	foodIngestCmd.Flags().BoolVar(&ingestSample, "sample", false, "load the built-in sample foods")
	foodIngestCmd.Flags().BoolVar(&ingestDummy, "dummy", false, "load the demo web-source foods")
}

func runFoodAdd(cmd *cobra.Command, args []string) error {
	if foodCalories < 0 {
		return errors.New("--calories must be zero or more")
	}
	return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
		id := newFoodID(s.Catalog(), foodID, foodName)
		food := domain.NewBasicFood(id, foodName, foodKeywordList(), foodCalories)
		return addFood(cmd, s.Catalog(), food)
	})
}

func runFoodComposite(cmd *cobra.Command, args []string) error {
	components, err := parseComponents(foodComponents)
	if err != nil {
		return err
	}
	return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
		for _, c := range components {
			if _, ok := s.Catalog().Get(c.FoodID); !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: component %q is not in the catalog and counts as 0 calories\n", c.FoodID)
			}
		}
		id := newFoodID(s.Catalog(), foodID, foodName)
		food := domain.NewCompositeFood(id, foodName, foodKeywordList(), components)
		return addFood(cmd, s.Catalog(), food)
	})
}

func addFood(cmd *cobra.Command, catalog *usecase.Catalog, food domain.Food) error {
	if _, exists := catalog.Get(food.ID); exists {
		fmt.Fprintf(cmd.OutOrStdout(), "Replacing existing food %s\n", food.ID)
	}
	catalog.Add(food)
	if err := catalog.ResolveAll(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	added, _ := catalog.Get(food.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s): %d cal/serving\n", added.ID, added.Name, added.Calories)
	return nil
}

func runFoodSearch(cmd *cobra.Command, args []string) error {
	var keywords []string
	for _, a := range args {
		keywords = append(keywords, analyzer.SplitList(a)...)
	}
	return runSession(cmd, false, func(ctx context.Context, s *usecase.Session) error {
		foods := s.Catalog().Search(keywords, foodMatchAll)
		if len(foods) == 0 && !foodJSON {
			fmt.Fprintln(cmd.OutOrStdout(), "No foods found.")
			return nil
		}
		return printFoods(cmd.OutOrStdout(), foods)
	})
}

func runFoodShow(cmd *cobra.Command, args []string) error {
	return runSession(cmd, false, func(ctx context.Context, s *usecase.Session) error {
		food, ok := s.Catalog().Get(args[0])
		if !ok {
			return fmt.Errorf("no food with ID %q", args[0])
		}
		out := cmd.OutOrStdout()
		if foodJSON {
			return writeJSON(out, food)
		}

		fmt.Fprintf(out, "%s (%s)\n", food.Name, food.ID)
		fmt.Fprintf(out, "  Calories: %d per serving\n", food.Calories)
		fmt.Fprintf(out, "  Keywords: %s\n", strings.Join(food.Keywords, ", "))
		if food.Composite {
			fmt.Fprintln(out, "  Components:")
			for _, c := range food.Components {
				name, cal := "?"+c.FoodID, 0
				if comp, ok := s.Catalog().Get(c.FoodID); ok {
					name, cal = comp.Name, comp.Calories
				}
				fmt.Fprintf(out, "    %d x %s (%s): %d cal\n", c.Servings, name, c.FoodID, cal*c.Servings)
			}
		}
		return nil
	})
}

func runFoodIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
		var sources []port.FoodSource
		var bar *fileProgress

		if len(args) > 0 {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("invalid path: %w", err)
			}
			bar = &fileProgress{out: cmd.ErrOrStderr()}
			walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
			sources = append(sources, source.NewFileSource(path, walker).OnProgress(bar.update))
			fmt.Fprintf(cmd.OutOrStdout(), "Scanning %s...\n", path)
		}
		if ingestS3 != "" {
			src, err := newS3Source(ctx, ingestS3)
			if err != nil {
				return err
			}
			sources = append(sources, src)
		}
		if ingestSample {
			sources = append(sources, source.Sample())
		}
		if ingestDummy {
			sources = append(sources, source.Dummy())
		}
		if len(sources) == 0 {
			return errors.New("nothing to ingest: give a path, --s3, --sample or --dummy")
		}

		result, err := usecase.NewIngestUseCase(s.Catalog()).Ingest(ctx, sources...)
		if bar != nil {
			bar.finish()
		}
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nIngest complete:\n")
		fmt.Fprintf(out, "  Sources read:  %d\n", result.Sources)
		fmt.Fprintf(out, "  Foods added:   %d\n", result.FoodsAdded)
		fmt.Fprintf(out, "  Catalog size:  %d\n", s.Catalog().Len())
		if result.Cycles != nil {
			fmt.Fprintf(out, "\nComposite cycles (values left unchanged):\n  %v\n", result.Cycles)
		}
		if len(result.Errors) > 0 {
			fmt.Fprintf(out, "\nWarnings:\n")
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  - %s\n", e)
			}
		}
		return nil
	})
}

func runFoodResolve(cmd *cobra.Command, args []string) error {
	return runSession(cmd, true, func(ctx context.Context, s *usecase.Session) error {
		catalog := s.Catalog()
		err := catalog.ResolveAll()

		composites := 0
		for _, f := range catalog.All() {
			if f.Composite {
				composites++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resolved %d composite foods (%s)\n", composites, catalog.Mode())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
		return nil
	})
}

func newS3Source(ctx context.Context, url string) (*source.S3Source, error) {
	bucket, key, err := source.ParseS3URL(url)
	if err != nil {
		return nil, err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return source.NewS3Source(s3.NewFromConfig(awsCfg), bucket, key), nil
}

// fileProgress draws a bar once the file count is known.
type fileProgress struct {
	out   io.Writer
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	start time.Time
	files int
}

func (p *fileProgress) update(processed, total int, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.start = time.Now()
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Reading[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	p.files = processed
	p.bar.Set(processed)
	p.bar.Describe(fmt.Sprintf("[cyan]Reading[reset] %s", filepath.Base(path)))
}

func (p *fileProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
		fmt.Fprintf(p.out, "\n%d files in %s\n", p.files, formatDuration(time.Since(p.start)))
	}
}

// newFoodID returns explicit when set. Otherwise it slugs name and, if that
// ID is taken, appends a short random suffix.
func newFoodID(catalog *usecase.Catalog, explicit, name string) string {
	if explicit != "" {
		return explicit
	}
	slug := strings.Join(analyzer.SplitList(strings.ToLower(name)), "_")
	if slug == "" {
		return uuid.NewString()
	}
	if _, taken := catalog.Get(slug); !taken {
		return slug
	}
	return slug + "_" + uuid.NewString()[:8]
}

func foodKeywordList() []string {
	if foodKeywords != "" {
		return analyzer.SplitList(foodKeywords)
	}
	return analyzer.NewTokenizer().Keywords(foodName)
}

func parseComponents(specs []string) ([]domain.Component, error) {
	components := make([]domain.Component, 0, len(specs))
	for _, spec := range specs {
		id, count, ok := strings.Cut(spec, ":")
		if !ok {
			count = "1"
		}
		servings, err := strconv.Atoi(count)
		if err != nil || servings <= 0 || id == "" {
			return nil, fmt.Errorf("invalid component %q: want ID:SERVINGS with SERVINGS > 0", spec)
		}
		components = append(components, domain.Component{FoodID: id, Servings: servings})
	}
	return components, nil
}

func printFoods(out io.Writer, foods []domain.Food) error {
	if foodJSON {
		return writeJSON(out, foods)
	}
	for _, f := range foods {
		kind := "basic"
		if f.Composite {
			kind = "composite"
		}
		fmt.Fprintf(out, "%-14s %-28s %5d cal  %-9s [%s]\n", f.ID, f.Name, f.Calories, kind, strings.Join(f.Keywords, ", "))
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}
