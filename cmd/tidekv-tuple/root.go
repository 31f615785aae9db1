package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tidekv/tidekv/pkg/slice"
	"github.com/tidekv/tidekv/pkg/tuple"
)

var rootCmd = &cobra.Command{
	Use:   "tidekv-tuple",
	Short: "Inspect tidekv tuple keys",
	Long: `tidekv-tuple packs, unpacks and renders the order-preserving
tuple encoding used for database keys.`,
}

func init() {
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(unpackCmd)
	rootCmd.AddCommand(escapeCmd)
	rootCmd.AddCommand(unescapeCmd)
}

// parseElement maps a command line argument onto a tuple element:
// "nil" is the nil element, 0x-prefixed hex is a byte string, integers
// are integers, everything else is a unicode string.
func parseElement(arg string) (tuple.Element, error) {
	if arg == "nil" {
		return nil, nil
	}
	if strings.HasPrefix(arg, "0x") {
		s, err := slice.FromHex(arg[2:])
		if err != nil {
			return nil, err
		}
		return s.Bytes(), nil
	}
	if v, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return v, nil
	}
	return arg, nil
}

var packCmd = &cobra.Command{
	Use:   "pack [element]...",
	Short: "Pack elements into an encoded key",
	RunE: func(cmd *cobra.Command, args []string) error {
		items := make([]tuple.Element, 0, len(args))
		for _, arg := range args {
			e, err := parseElement(arg)
			if err != nil {
				return err
			}
			items = append(items, e)
		}
		packed, err := tuple.New(items...).Pack()
		if err != nil {
			return err
		}
		fmt.Printf("hex:     %s\n", packed.ToHex())
		fmt.Printf("escaped: %s\n", packed.Escape())
		return nil
	},
}

var unpackCmd = &cobra.Command{
	Use:   "unpack <hex>",
	Short: "Decode an encoded key into its elements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := slice.FromHex(args[0])
		if err != nil {
			return err
		}
		st := tuple.FromSlice(data)
		n, err := st.Count()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			e, err := st.Get(i)
			if err != nil {
				return err
			}
			raw, err := st.GetSlice(i)
			if err != nil {
				return err
			}
			fmt.Printf("%d: %-8T %v  (%s)\n", i, e, e, raw.ToHex())
		}
		return nil
	},
}

var escapeCmd = &cobra.Command{
	Use:   "escape <hex>",
	Short: "Render hex bytes in the human-readable escape form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := slice.FromHex(args[0])
		if err != nil {
			return err
		}
		fmt.Println(data.Escape())
		return nil
	},
}

var unescapeCmd = &cobra.Command{
	Use:   "unescape <escaped>",
	Short: "Parse the escape form back into hex bytes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := slice.Unescape(args[0])
		if err != nil {
			return err
		}
		fmt.Println(data.ToHex())
		return nil
	},
}
