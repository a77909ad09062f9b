package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/resampler"
)

var codecsCmd = &cobra.Command{
	Use:   "codecs",
	Short: "List the supported codecs",
	Long: `List the supported codecs with their frame modes and the sample rates
of the resampler. With --server-name the codecs of a remote codec server
are queried through NATS.
`,
	Run: listCodecs,
}

func init() {
	RootCmd.AddCommand(codecsCmd)
	addNatsFlags(codecsCmd)
	codecsCmd.Flags().StringP("server-name", "Y", "", "query the remote codec server with this name")
	codecsCmd.Flags().Bool("json", false, "print the descriptors as JSON")
}

func listCodecs(cmd *cobra.Command, args []string) {

	readConfig()
	bindNatsFlags(cmd)

	descs := ac.Descriptors()
	rates := resampler.Rates()

	if name, _ := cmd.Flags().GetString("server-name"); name != "" {
		if err := checkServerName(name); err != nil {
			exit(err)
		}
		remote, closeFn, err := connectCodecServer(name)
		if err != nil {
			exit(err)
		}
		defer closeFn()
		descs = remote.Codecs()
		latency, err := remote.Ping(context.Background())
		if err != nil {
			exit(err)
		}
		open, limit := remote.Sessions()
		fmt.Printf("%s: engine %s, %d/%d sessions, round trip %v\n",
			remote.ServiceName(), remote.Engine(), open, limit, latency)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(descs); err != nil {
			exit(err)
		}
		return
	}

	if err := printCodecs(os.Stdout, descs, rates); err != nil {
		exit(err)
	}
}

// printCodecs writes a table of the codec descriptors to w.
func printCodecs(w io.Writer, descs []*ac.Descriptor, rates []int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tRATE\tFRAMING\tFRAMES (samples:bytes)\tSETUP BITRATES\tDESCRIPTION")

	for _, d := range descs {
		modes := make([]string, 0, len(d.Modes))
		for _, m := range d.Modes {
			modes = append(modes, fmt.Sprintf("%d:%d", m.Samples, m.EncodedBytes))
		}
		bitrates := "-"
		if d.RequiresSetup {
			brs := make([]string, 0, len(d.Bitrates))
			for _, b := range d.Bitrates {
				brs = append(brs, fmt.Sprintf("%d", b))
			}
			bitrates = strings.Join(brs, ",")
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			d.Name, d.Samplerate, d.Framing, strings.Join(modes, " "), bitrates, d.Description)
	}

	rs := make([]string, 0, len(rates))
	for _, r := range rates {
		rs = append(rs, fmt.Sprintf("%d", r))
	}
	fmt.Fprintf(tw, "resampler\t%s\t\t\t\tmax ratio %d:1\n", strings.Join(rs, ","), resampler.MaxRatio)

	return tw.Flush()
}
