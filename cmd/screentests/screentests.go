package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/ina219"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/screen"
)

// Reads "<rail volts> <distance>..." lines from stdin and shows them on the
// screen. A negative distance shows as out of range.
func main() {
	ctx := context.Background()

	var board screen.Board
	go board.Loop(ctx, "/dev/fb1")

	board.Update(screen.Status{RailVolts: 5, RailOK: true})

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		var values []float64
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				fmt.Println("Bad number", f)
				values = nil
				break
			}
			values = append(values, v)
		}
		if values == nil {
			continue
		}
		s := screen.Status{RailVolts: values[0], RailOK: ina219.RailOK(values[0])}
		for i, d := range values[1:] {
			s.Distances = append(s.Distances, screen.Distance{
				Name:       fmt.Sprintf("s%d", i),
				DistanceCM: d,
				OK:         d >= 0,
			})
		}
		board.Update(s)
	}
}
