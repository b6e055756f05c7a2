package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"valentine_week_backend/pkg/client"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8001"

var rootCmd = &cobra.Command{
	Use:           "valentinectl",
	Short:         "Valentine's Week progress client",
	Long:          "valentinectl talks to the Valentine's Week progress API: list days, inspect and complete progress, toggle replay mode.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "API base URL (overrides VALENTINE_SERVER, default "+defaultServer+")")
	rootCmd.PersistentFlags().String("user", "", "user id (overrides VALENTINE_USER)")
	rootCmd.PersistentFlags().String("token", "", "bearer token (overrides VALENTINE_TOKEN)")
	rootCmd.PersistentFlags().Bool("json", false, "print raw JSON")

	rootCmd.AddCommand(daysCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(replayCmd)
}

// flagOrEnv 命令行参数优先，其次环境变量
func flagOrEnv(cmd *cobra.Command, name, env, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

func newClient(cmd *cobra.Command) *client.Client {
	server := flagOrEnv(cmd, "server", "VALENTINE_SERVER", defaultServer)
	var opts []client.Option
	if token := flagOrEnv(cmd, "token", "VALENTINE_TOKEN", ""); token != "" {
		opts = append(opts, client.WithToken(token))
	}
	return client.New(server, opts...)
}

func resolveUser(cmd *cobra.Command) (string, error) {
	user := flagOrEnv(cmd, "user", "VALENTINE_USER", "")
	if user == "" {
		return "", fmt.Errorf("no user given: pass --user or set VALENTINE_USER")
	}
	return user, nil
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dayStatus(p *client.UserProgress, d client.DayProgress) string {
	switch {
	case d.IsCompleted:
		return "completed"
	case client.IsUnlocked(p, d.DayNumber):
		return "unlocked"
	}
	return "locked"
}

func printProgress(cmd *cobra.Command, p *client.UserProgress) error {
	out := cmd.OutOrStdout()
	if wantJSON(cmd) {
		return printJSON(out, p)
	}

	mode := "normal"
	if p.ReplayMode {
		mode = "replay"
	}
	fmt.Fprintf(out, "user %s  mode %s  all completed: %t\n", p.UserID, mode, p.AllCompleted)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tNAME\tSTATUS\tCOMPLETED AT")
	for _, d := range p.Days {
		at := "-"
		if d.CompletionTime != nil {
			at = d.CompletionTime.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.DayNumber, d.DayName, dayStatus(p, d), at)
	}
	return tw.Flush()
}

func printDays(cmd *cobra.Command, days []client.ValentineDay) error {
	out := cmd.OutOrStdout()
	if wantJSON(cmd) {
		return printJSON(out, days)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tNAME\tDATE\tROUTE")
	for _, d := range days {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.Number, d.Name, d.Date, d.Route)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, d := range days {
		fmt.Fprintf(out, "%d. %s\n", d.Number, strings.TrimSpace(d.Quote))
	}
	return nil
}
