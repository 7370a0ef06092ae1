package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/chrissnell/pvlifetime/internal/log"
	"github.com/chrissnell/pvlifetime/pkg/airmass"
)

func main() {
	start := flag.Float64("start", 0, "First zenith angle, degrees")
	end := flag.Float64("end", 90, "Last zenith angle, degrees")
	step := flag.Float64("step", 5, "Zenith step, degrees")
	models := flag.String("models", "", "Comma-separated models to tabulate (default: all)")
	altitude := flag.Float64("altitude", 0, "Site altitude in meters; non-zero prints pressure-corrected absolute airmass")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *step <= 0 {
		log.Errorf("step must be positive")
		os.Exit(1)
	}
	if *end < *start {
		log.Errorf("end (%v) must not be less than start (%v)", *end, *start)
		os.Exit(1)
	}

	var selected []airmass.Model
	if *models == "" {
		for _, name := range airmass.Models() {
			m, _ := airmass.Lookup(name)
			selected = append(selected, m)
		}
	} else {
		for _, name := range strings.Split(*models, ",") {
			selected = append(selected, airmass.ParseModel(name, log.GetSugaredLogger()))
		}
	}

	pressure := 0.0
	if *altitude != 0 {
		pressure = airmass.PressureFromAltitude(*altitude)
	}

	if err := writeTable(os.Stdout, selected, *start, *end, *step, pressure); err != nil {
		log.Errorf("could not write table: %v", err)
		os.Exit(1)
	}
}

// writeTable prints one row per zenith angle and one column per model.
// Non-finite airmass prints as "-".
func writeTable(w io.Writer, models []airmass.Model, start, end, step, pressure float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprint(tw, "zenith\t")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t", m)
	}
	fmt.Fprintln(tw)

	n := int(math.Floor((end-start)/step+1e-9)) + 1
	for i := 0; i < n; i++ {
		z := start + float64(i)*step
		fmt.Fprintf(tw, "%.2f\t", z)
		for _, m := range models {
			am := airmass.Relative(z, m)
			if pressure > 0 {
				am = airmass.Absolute(am, pressure)
			}
			if math.IsNaN(am) || math.IsInf(am, 0) {
				fmt.Fprint(tw, "-\t")
				continue
			}
			fmt.Fprintf(tw, "%.4f\t", am)
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}
