package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSpecsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "specs",
		Short: "List registered specifications",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reg, err := a.registry("", nil)
			if err != nil {
				return err
			}
			for _, name := range reg.Names() {
				s, _ := reg.Lookup(name)
				fmt.Fprintf(a.stdout, "%s\t%s\n", name, s.DefaultVersionName())
			}
			return nil
		},
	}
}

func newVersionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <spec>",
		Short: "List the versions a specification supports",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg, err := a.registry("", nil)
			if err != nil {
				return err
			}
			s, err := reg.Lookup(args[0])
			if err != nil {
				return err
			}
			for _, v := range s.Versions() {
				if v == s.DefaultVersionName() {
					fmt.Fprintf(a.stdout, "%s (default)\n", v)
					continue
				}
				fmt.Fprintln(a.stdout, v)
			}
			return nil
		},
	}
}

func newExtensionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extensions <spec>",
		Short: "List the file extensions a specification reads",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg, err := a.registry("", nil)
			if err != nil {
				return err
			}
			exts, err := reg.SupportedExtensions(args[0])
			if err != nil {
				return err
			}
			for _, e := range exts {
				fmt.Fprintln(a.stdout, e)
			}
			return nil
		},
	}
}
