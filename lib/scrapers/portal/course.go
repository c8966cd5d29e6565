package portal

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	BlockLecture  = "LEC"
	BlockTutorial = "TUT"
	BlockLab      = "LAB"
)

// Block is one schedulable section of a course. Values are kept exactly as the
// portal reports them.
type Block struct {
	Type              string `json:"type"`
	CartId            string `json:"cartId"`
	SectionNumber     string `json:"sectionNumber"`
	MaximumEnrollment string `json:"maximumEnrollment"`
	OpenSeats         string `json:"openSeats"`
	WaitlistCapacity  string `json:"waitlistCapacity"`
	WaitlistSeats     string `json:"waitlistSeats"`
	DisplayName       string `json:"displayName"`
	Teacher           string `json:"teacher"`
	Location          string `json:"location"`
	InstructionMode   string `json:"instructionMode"`
}

type Course struct {
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Lectures    []Block `json:"lectures"`
	Tutorials   []Block `json:"tutorials"`
	Labs        []Block `json:"labs"`
}

// Blocks returns every block of the course, lectures first.
func (c Course) Blocks() []Block {
	out := make([]Block, 0, len(c.Lectures)+len(c.Tutorials)+len(c.Labs))
	out = append(out, c.Lectures...)
	out = append(out, c.Tutorials...)
	out = append(out, c.Labs...)
	return out
}

func normalizeBlock(raw RawBlock) Block {
	return Block{
		Type:              raw.Type,
		CartId:            raw.CartId,
		SectionNumber:     raw.SecNo,
		MaximumEnrollment: raw.Me,
		OpenSeats:         raw.Os,
		WaitlistCapacity:  raw.Wc,
		WaitlistSeats:     raw.Ws,
		DisplayName:       raw.Disp,
		Teacher:           raw.Teacher,
		Location:          raw.Location,
		InstructionMode:   raw.Im,
	}
}

// flattenBlocks walks uselection -> selection -> block in document order and keeps
// the first block seen for every cartid.
//
// Blocks that share a cartid but differ by timeblockids collapse into one here.
func flattenBlocks(root RawCourse) ([]RawBlock, error) {
	if len(root.USelection) == 0 {
		return nil, malformed("course %q has no selection groupings", root.Key)
	}

	seen := map[string]struct{}{}
	var blocks []RawBlock
	for i, uselection := range root.USelection {
		if len(uselection.Selection) == 0 {
			return nil, malformed("selection grouping %d of %q has no selections", i, root.Key)
		}
		for j, selection := range uselection.Selection {
			if len(selection.Block) == 0 {
				return nil, malformed("selection %d.%d of %q has no blocks", i, j, root.Key)
			}
			for _, block := range selection.Block {
				if _, dup := seen[block.CartId]; dup {
					continue
				}
				seen[block.CartId] = struct{}{}
				blocks = append(blocks, block)
			}
		}
	}
	return blocks, nil
}

// ParseCourse turns a raw course node into a Course with deduplicated blocks
// sorted into lectures, tutorials and labs.
func ParseCourse(ctx context.Context, root RawCourse) (Course, error) {
	ctx, span := tracer.Start(ctx, "ParseCourse")
	defer span.End()

	if len(root.Offering) == 0 {
		err := malformed("course %q has no offering", root.Key)
		span.SetStatus(codes.Error, err.Error())
		return Course{}, err
	}

	rawBlocks, err := flattenBlocks(root)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Course{}, err
	}

	course := Course{
		Code:        root.Key,
		Title:       root.Offering[0].Title,
		Description: root.Offering[0].Desc,
		Lectures:    []Block{},
		Tutorials:   []Block{},
		Labs:        []Block{},
	}
	for _, raw := range rawBlocks {
		block := normalizeBlock(raw)
		switch block.Type {
		case BlockLecture:
			course.Lectures = append(course.Lectures, block)
		case BlockTutorial:
			course.Tutorials = append(course.Tutorials, block)
		case BlockLab:
			course.Labs = append(course.Labs, block)
		default:
			slog.WarnContext(
				ctx, "block type did not match LEC/TUT/LAB, treating as lecture",
				"course", course.Code,
				"cart_id", block.CartId,
				"type", block.Type,
			)
			span.AddEvent("unknown block type", trace.WithAttributes(
				attribute.String("cart_id", block.CartId),
				attribute.String("type", block.Type),
			))
			course.Lectures = append(course.Lectures, block)
		}
	}

	span.SetAttributes(
		attribute.String("code", course.Code),
		attribute.Int("blocks", len(rawBlocks)),
	)
	return course, nil
}
