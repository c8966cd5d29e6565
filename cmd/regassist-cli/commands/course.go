package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"regassist-backend/lib/scrapers/portal"
	"regassist-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var courseRaw *bool

func init() {
	courseRaw = courseCmd.Flags().Bool("raw", false, "Print the class data document as the portal returns it.")
	rootCmd.AddCommand(courseCmd)
}

func writeCourseTable(out io.Writer, course portal.Course) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("%s: %s", course.Code, course.Title))
	t.AppendHeader(table.Row{"Type", "Cart ID", "Section", "Open", "Capacity", "Waitlist", "Teacher", "Location", "Mode"})

	for _, block := range course.Blocks() {
		t.AppendRow(table.Row{
			block.Type,
			block.CartId,
			block.SectionNumber,
			block.OpenSeats,
			block.MaximumEnrollment,
			fmt.Sprintf("%s/%s", block.WaitlistSeats, block.WaitlistCapacity),
			block.Teacher,
			block.Location,
			block.InstructionMode,
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

var courseCmd = &cobra.Command{
	Use:   "course <name> [--raw]",
	Short: "Fetches a course's blocks from the portal.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client := createClient(readConfig())

		if *courseRaw {
			body, err := client.FetchCourseXml(ctx, args[0])
			if err != nil {
				serviceutil.Fatal("failed to fetch course", err)
			}
			os.Stdout.Write(body)
			return
		}

		course, err := client.FetchCourse(ctx, args[0])
		var remoteErr *portal.RemoteError
		if errors.As(err, &remoteErr) {
			fmt.Fprintf(os.Stderr, "%s (%s)\n", remoteErr.Message, remoteErr.Kind)
			os.Exit(1)
		}
		if err != nil {
			serviceutil.Fatal("failed to fetch course", err)
		}

		fmt.Println(course.Description)
		writeCourseTable(os.Stdout, course)
	},
}
