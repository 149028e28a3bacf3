// Package main provides the attrcore CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"attrcore"
)

var rootCmd = &cobra.Command{
	Use:   "attrcore",
	Short: "Resolve git-attributes-style path attributes against a repository",
	Long:  `attrcore aggregates per-directory .gitattributes files, expands macros, and reports resolved attribute values for one or more paths.`,
}

var checkCmd = &cobra.Command{
	Use:   "check <path> <attr> [attr...]",
	Short: "Resolve one or more attributes for a path",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCheck,
}

var listCmd = &cobra.Command{
	Use:   "list <path>",
	Short: "List every attribute assigned to a path",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache maintenance commands",
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Discard every cached parsed attribute file",
	RunE:  runCacheFlush,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report the parsed-attribute-file cache's current size",
	RunE:  runCacheStats,
}

var (
	repoPath   string
	configPath string
	jsonFlag   bool
	indexOnly  bool
	noSystem   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", ".", "Path to the Git repository")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".attrcore.toml", "Path to the attrcore config file")
	checkCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
	checkCmd.Flags().BoolVar(&indexOnly, "index-only", false, "Resolve only against the index, not the working tree")
	checkCmd.Flags().BoolVar(&noSystem, "no-system", false, "Skip the system-wide attributes file")
	listCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
	cacheStatsCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")

	cacheCmd.AddCommand(cacheFlushCmd)
	cacheCmd.AddCommand(cacheStatsCmd)

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func lookupFlags() attrcore.Flags {
	var flags attrcore.Flags
	if indexOnly {
		flags |= attrcore.IndexOnly
	}
	if noSystem {
		flags |= attrcore.NoSystem
	}
	return flags
}

func runCheck(cmd *cobra.Command, args []string) error {
	path, names := args[0], args[1:]

	engine, cfg, err := attrcore.OpenRepo(repoPath, configPath)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}
	sess := attrcore.NewSession(cfg)

	values, err := engine.GetManyWithSession(context.Background(), sess, lookupFlags(), path, names)
	if err != nil {
		return fmt.Errorf("resolving attributes: %w", err)
	}

	if jsonFlag {
		out := make(map[string]string, len(names))
		for i, name := range names {
			out[name] = values[i].String()
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}
	for i, name := range names {
		fmt.Printf("%s: %s\n", name, values[i].String())
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	path := args[0]

	engine, cfg, err := attrcore.OpenRepo(repoPath, configPath)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}
	sess := attrcore.NewSession(cfg)

	type assignment struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	var out []assignment

	err = engine.ForEachWithSession(context.Background(), sess, lookupFlags(), path, func(name string, v attrcore.Value) error {
		out = append(out, assignment{Name: name, Value: v.String()})
		return nil
	})
	if err != nil {
		return fmt.Errorf("listing attributes: %w", err)
	}

	if jsonFlag {
		return json.NewEncoder(os.Stdout).Encode(out)
	}
	for _, a := range out {
		fmt.Printf("%s: %s\n", a.Name, a.Value)
	}
	return nil
}

func runCacheFlush(cmd *cobra.Command, args []string) error {
	engine, _, err := attrcore.OpenRepo(repoPath, configPath)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}
	engine.CacheFlush()
	fmt.Println("cache flushed")
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	engine, _, err := attrcore.OpenRepo(repoPath, configPath)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}
	stats := engine.CacheStats()

	if jsonFlag {
		return json.NewEncoder(os.Stdout).Encode(stats)
	}
	fmt.Printf("entries: %d\n", stats.Entries)
	fmt.Printf("macros: %d\n", stats.Macros)
	return nil
}
