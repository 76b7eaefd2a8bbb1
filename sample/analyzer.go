// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sample

import (
	"fmt"
	"io"

	"github.com/tcu-go/tcu/isa"
	"github.com/tcu-go/tcu/platform"
)

// Stage bit offsets within a sample's 16-bit flags field, one valid/ready
// pair per pipeline stage.
const (
	StageArray       = 0
	StageAcc         = 2
	StageDataflow    = 4
	StageDRAM1       = 6
	StageDRAM0       = 8
	StageMemPortB    = 10
	StageMemPortA    = 12
	StageInstruction = 14
)

var stageNames = []struct {
	name   string
	offset uint
}{
	{"Array", StageArray}, {"Acc", StageAcc}, {"Dataflow", StageDataflow},
	{"DRAM1", StageDRAM1}, {"DRAM0", StageDRAM0}, {"MemPortB", StageMemPortB},
	{"MemPortA", StageMemPortA}, {"Instruction", StageInstruction},
}

// PrintFlags writes a human-readable breakdown of a sample's 16-bit
// pipeline-stage flags, one "name=valid/ready" pair per stage.
func PrintFlags(w io.Writer, flags uint16) {
	for _, s := range stageNames {
		bits := (flags >> s.offset) & 0x3
		fmt.Fprintf(w, "%s=%d/%d ", s.name, bits&0x1, (bits>>1)&0x1)
	}
	fmt.Fprintln(w)
}

func opcodeToString(op isa.Opcode) string {
	switch op {
	case isa.NoOp:
		return "NoOp"
	case isa.MatMul:
		return "MatMul"
	case isa.DataMove:
		return "DataMove"
	case isa.LoadWeight:
		return "LoadWeight"
	case isa.SIMD:
		return "SIMD"
	case isa.Config:
		return "Config"
	default:
		return fmt.Sprintf("Unknown(%d)", op)
	}
}

// Analysis aggregates decoded samples by the instruction they correlate
// to, bucketed per header byte, per opcode, and per opcode-specific
// 16-bit sample flags value.
type Analysis struct {
	HeaderCounts [256]int
	OpcodeCounts [16]int
	FlagsCounts  map[isa.Opcode]map[uint16]int
	Samples      int
}

// Analyze walks it to exhaustion, decoding each valid sample's correlated
// instruction out of program (via layout) and bucketing the result.
func Analyze(it *Iterator, program []byte, layout isa.Layout) Analysis {
	a := Analysis{FlagsCounts: map[isa.Opcode]map[uint16]int{}}
	var s Sample
	for it.Next(&s) {
		instrOffset := int(s.PC) * layout.InstructionSizeBytes
		d := isa.Decode(layout, program, instrOffset)
		header := byte(d.Opcode)<<4 | byte(d.Flags)
		a.HeaderCounts[header]++
		a.OpcodeCounts[d.Opcode&0xF]++
		if a.FlagsCounts[d.Opcode] == nil {
			a.FlagsCounts[d.Opcode] = map[uint16]int{}
		}
		a.FlagsCounts[d.Opcode][s.Flags]++
		a.Samples++
	}
	return a
}

// PrintSummary writes opcode totals and the DataMove flag breakdown.
func (a Analysis) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "samples: %d\n", a.Samples)
	for op := isa.Opcode(0); op < 16; op++ {
		if a.OpcodeCounts[op] == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s: %d\n", opcodeToString(op), a.OpcodeCounts[op])
		if op == isa.DataMove {
			for f := 0; f < 16; f++ {
				if n := a.HeaderCounts[byte(op)<<4|byte(f)]; n > 0 {
					fmt.Fprintf(w, "    flags=%#x: %d\n", f, n)
				}
			}
		}
	}
}

// PrintAggregates writes the per-opcode, per-flags-value sample counts.
func (a Analysis) PrintAggregates(w io.Writer) {
	for op, byFlags := range a.FlagsCounts {
		fmt.Fprintf(w, "%s:\n", opcodeToString(op))
		for flags, count := range byFlags {
			fmt.Fprintf(w, "  flags=%#04x count=%d\n", flags, count)
		}
	}
}

// PrintListing writes one line per sample: "[pc - pcShift] opcode: flags".
func PrintListing(w io.Writer, it *Iterator, program []byte, layout isa.Layout, pcShift uint32) {
	var s Sample
	for it.Next(&s) {
		instrOffset := int(s.PC) * layout.InstructionSizeBytes
		d := isa.Decode(layout, program, instrOffset)
		fmt.Fprintf(w, "[%d] %s: ", int64(s.PC)-int64(pcShift), opcodeToString(d.Opcode))
		PrintFlags(w, s.Flags)
	}
}

// ToFile persists the byte range from the wrap-recovered start through the
// last sample the iterator actually yields (valid PC, correlated to the
// program), verbatim, for offline reanalysis. Trailing never-populated
// slots from a partial final DMA block are not written.
func ToFile(fs platform.FileSystem, path string, buf []byte, filledBytes, instrSize, programSize int) error {
	start := FindValidOffset(buf, filledBytes)
	it := NewIterator(buf, filledBytes, instrSize, programSize)
	end := start
	var s Sample
	for it.Next(&s) {
		end = it.pos + SizeBytes
	}
	return fs.WriteAt(path, 0, buf[start:end])
}
