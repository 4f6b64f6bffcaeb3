// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	constants  bool
	fields     bool
	methods    bool
	attributes bool
	inner      bool
	all        bool
)

var rootCmd = &cobra.Command{
	Use:   "jclassdump",
	Short: "A Java class file dumper",
	Long: `jclassdump decodes Java class files and prints the decoded
structures as JSON. It accepts .class files, directories, and .jar
archives.`,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <path>...",
	Short: "Dump the decoded contents of class files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, path := range args {
			dumpPath(path)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("You are using version 1.0.0")
	},
}

func init() {
	dumpCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose decode logging")
	dumpCmd.Flags().BoolVarP(&constants, "constants", "c", false, "Dump the resolved constant pool")
	dumpCmd.Flags().BoolVarP(&fields, "fields", "f", false, "Dump fields")
	dumpCmd.Flags().BoolVarP(&methods, "methods", "m", false, "Dump methods")
	dumpCmd.Flags().BoolVarP(&attributes, "attributes", "a", false, "Dump class-level attributes")
	dumpCmd.Flags().BoolVarP(&inner, "inner", "i", false, "Dump inner class records")
	dumpCmd.Flags().BoolVarP(&all, "all", "A", false, "Dump everything")

	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
