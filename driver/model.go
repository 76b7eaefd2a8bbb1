// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package driver

import (
	"fmt"
	"io"

	"github.com/tcu-go/tcu/arch"
	"github.com/tcu-go/tcu/dram"
	"github.com/tcu-go/tcu/isa"
	"github.com/tcu-go/tcu/model"
	"github.com/tcu-go/tcu/tcuerr"
)

// maxPrintOutputVectors bounds PrintModelOutputVectors.
const maxPrintOutputVectors = 16

// LoadModel binds m to this Driver: streams its constants into DRAM1
// (optionally staging them into Local memory), then loads its program into
// the instruction buffer under preamble/postamble framing. Subsequent
// input/output operations resolve named bindings against m.
func (d *Driver) LoadModel(m model.Model) error {
	if !arch.Compatible(d.arch, m.Arch) {
		return tcuerr.Driverf(tcuerr.IncompatibleModel, "incompatible model")
	}

	for _, c := range m.Consts {
		path := m.Path(c.FileName)
		if err := d.loadDRAMVectorsFromFile(DRAM1, c.Base, c.Size, path); err != nil {
			return err
		}
		if m.LoadConstsToLocal {
			if err := d.runLoadConsts(c.Base, c.Size); err != nil {
				return err
			}
		}
	}

	if err := d.loadProgramFromFile(m.Prog.Size, m.Path(m.Prog.FileName)); err != nil {
		return err
	}

	d.model = m
	return nil
}

// loadDRAMVectorsFromFile reads sizeVec vectors directly off disk into bank
// at offsetVec: the file's wire format is byte-identical to the bank's, so
// this is a bounds-checked direct copy rather than a decode/re-encode round
// trip.
func (d *Driver) loadDRAMVectorsFromFile(bank Bank, offsetVec, sizeVec int, path string) error {
	if d.cfg.FS == nil {
		return tcuerr.Driverf(tcuerr.InvalidPlatform, "model load requires a FileSystem, none configured")
	}
	region := d.bankRegion(bank)
	scalarSize := dram.SizeofScalar(d.arch.DataType)
	byteOffset := offsetVec * d.arch.ArraySize * scalarSize
	byteSize := sizeVec * d.arch.ArraySize * scalarSize

	actual, err := d.cfg.FS.Size(path)
	if err != nil {
		return tcuerr.FS(path, err)
	}
	if actual != int64(byteSize) {
		return tcuerr.Driverf(tcuerr.UnexpectedConstsSize, "%s: expected %d bytes, got %d", path, byteSize, actual)
	}
	if byteOffset+byteSize > len(region.Bytes()) {
		return tcuerr.Driverf(tcuerr.InsufficientBuffer, "%s: consts data too big for bank", path)
	}
	if err := d.cfg.FS.ReadAt(path, 0, region.Bytes()[byteOffset:byteOffset+byteSize]); err != nil {
		return tcuerr.FS(path, err)
	}
	return region.Flush(byteOffset, byteSize)
}

// runLoadConsts emits and runs a single-instruction program that stages a
// just-loaded constants region from DRAM1 into Local memory.
func (d *Driver) runLoadConsts(offsetVec, sizeVec int) error {
	if err := d.preamble(); err != nil {
		return err
	}
	op0 := d.layout.MakeOperand0(uint64(offsetVec), 0)
	op1 := d.layout.MakeOperand1(uint64(offsetVec), 0)
	if err := d.progBuf.AppendInstruction(d.layout, isa.DataMove, isa.DataMoveDRAM1ToLocal, op0, op1, uint64(sizeVec-1)); err != nil {
		return err
	}
	if err := d.postamble(); err != nil {
		return err
	}
	return d.Run(nil)
}

// loadProgramFromFile assembles the program buffer with the user's compiled
// program streamed directly from the file system.
func (d *Driver) loadProgramFromFile(size int64, path string) error {
	if d.cfg.FS == nil {
		return tcuerr.Driverf(tcuerr.InvalidPlatform, "model load requires a FileSystem, none configured")
	}
	if err := d.preamble(); err != nil {
		return err
	}
	if err := d.progBuf.AppendProgramFromFile(d.cfg.FS, path, size); err != nil {
		return err
	}
	return d.postamble()
}

// LoadModelInputFromFile streams the named input's vectors directly from a
// file into DRAM0.
func (d *Driver) LoadModelInputFromFile(name, path string) error {
	in, ok := d.model.Input(name)
	if !ok {
		return tcuerr.Driverf(tcuerr.UnexpectedInputName, "unexpected input name %s", name)
	}
	return d.loadDRAMVectorsFromFile(DRAM0, in.Base, in.Size, path)
}

// LoadModelInputFromFlash streams the named input's vectors into DRAM0
// from the configured flash device, reading from flashOffset. The on-flash
// layout is the same raw little-endian wire format the file variant uses.
func (d *Driver) LoadModelInputFromFlash(name string, flashOffset int64) error {
	if d.cfg.Flash == nil {
		return tcuerr.Driverf(tcuerr.InvalidPlatform, "flash load requires a Flash device, none configured")
	}
	in, ok := d.model.Input(name)
	if !ok {
		return tcuerr.Driverf(tcuerr.UnexpectedInputName, "unexpected input name %s", name)
	}
	region := d.bankRegion(DRAM0)
	scalarSize := dram.SizeofScalar(d.arch.DataType)
	byteOffset := in.Base * d.arch.ArraySize * scalarSize
	byteSize := in.Size * d.arch.ArraySize * scalarSize
	if byteOffset+byteSize > len(region.Bytes()) {
		return tcuerr.Driverf(tcuerr.InsufficientBuffer, "input %s too big for bank", name)
	}
	if err := d.cfg.Flash.ReadBlock(flashOffset, region.Bytes()[byteOffset:byteOffset+byteSize]); err != nil {
		return tcuerr.VendorErr("flash", err)
	}
	return region.Flush(byteOffset, byteSize)
}

// LoadModelInputScalars writes up to count host floats into the named
// input's full vector slab, zero-padding the remainder.
func (d *Driver) LoadModelInputScalars(name string, count int, buf []float32) error {
	in, ok := d.model.Input(name)
	if !ok {
		return tcuerr.Driverf(tcuerr.UnexpectedInputName, "unexpected input name %s", name)
	}
	total := in.Size * d.arch.ArraySize
	vec := make([]float32, total)
	for j := 0; j < total; j++ {
		if j < count && j < len(buf) {
			vec[j] = buf[j]
		}
	}
	return d.WriteDRAMVectors(DRAM0, in.Base, 0, in.Size, vec)
}

// LoadModelInputVectorScalars writes a single array-wide vector at
// input.base + vectorOffset, zero-padding past count.
func (d *Driver) LoadModelInputVectorScalars(name string, vectorOffset, count int, buf []float32) error {
	in, ok := d.model.Input(name)
	if !ok {
		return tcuerr.Driverf(tcuerr.UnexpectedInputName, "unexpected input name %s", name)
	}
	vec := make([]float32, d.arch.ArraySize)
	for j := 0; j < d.arch.ArraySize; j++ {
		if j < count && j < len(buf) {
			vec[j] = buf[j]
		}
	}
	return d.WriteDRAMVectors(DRAM0, in.Base+vectorOffset, 0, 1, vec)
}

// GetModelOutputScalars reads the named output's full vector slab and
// copies up to count floats into buf.
func (d *Driver) GetModelOutputScalars(name string, count int, buf []float32) error {
	out, ok := d.model.Output(name)
	if !ok {
		return tcuerr.Driverf(tcuerr.UnexpectedOutputName, "unexpected output name %s", name)
	}
	total := out.Size * d.arch.ArraySize
	vec := make([]float32, total)
	if err := d.ReadDRAMVectors(DRAM0, out.Base, 0, out.Size, vec); err != nil {
		return err
	}
	for j := 0; j < count && j < len(buf); j++ {
		if j < total {
			buf[j] = vec[j]
		}
	}
	return nil
}

// PrintModelOutputVectors writes up to maxPrintOutputVectors formatted
// vectors of the named output to w.
func (d *Driver) PrintModelOutputVectors(w io.Writer, name string) error {
	out, ok := d.model.Output(name)
	if !ok {
		return tcuerr.Driverf(tcuerr.UnexpectedOutputName, "unexpected output name %s", name)
	}
	n := out.Size
	if n > maxPrintOutputVectors {
		n = maxPrintOutputVectors
	}
	vec := make([]float32, d.arch.ArraySize)
	for j := 0; j < n; j++ {
		if err := d.ReadDRAMVectors(DRAM0, out.Base+j, 0, 1, vec); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s[%04d]=", name, j)
		for _, v := range vec {
			fmt.Fprintf(w, "%9.4f ", v)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteDRAMVectors writes countVec vectors from buf into bank starting at
// offsetVec, advancing by 2^strideLog2 vectors between each.
func (d *Driver) WriteDRAMVectors(bank Bank, offsetVec int, strideLog2 uint, countVec int, buf []float32) error {
	region := d.bankRegion(bank)
	scalarSize := dram.SizeofScalar(d.arch.DataType)
	stride := 1 << strideLog2
	needBytes := (offsetVec + countVec*stride) * d.arch.ArraySize * scalarSize
	if needBytes > len(region.Bytes()) {
		return tcuerr.Driverf(tcuerr.InsufficientBuffer, "written data too big: need %d bytes, bank is %d", needBytes, len(region.Bytes()))
	}
	if strideLog2 == 0 {
		return dram.WriteScalars(region, d.arch.DataType, offsetVec*d.arch.ArraySize, countVec*d.arch.ArraySize, buf)
	}
	for i := 0; i < countVec; i++ {
		off := (offsetVec + i*stride) * d.arch.ArraySize
		if err := dram.WriteScalars(region, d.arch.DataType, off, d.arch.ArraySize, buf[i*d.arch.ArraySize:(i+1)*d.arch.ArraySize]); err != nil {
			return err
		}
	}
	return nil
}

// ReadDRAMVectors is the WriteDRAMVectors counterpart.
func (d *Driver) ReadDRAMVectors(bank Bank, offsetVec int, strideLog2 uint, countVec int, buf []float32) error {
	region := d.bankRegion(bank)
	scalarSize := dram.SizeofScalar(d.arch.DataType)
	stride := 1 << strideLog2
	needBytes := (offsetVec + countVec*stride) * d.arch.ArraySize * scalarSize
	if needBytes > len(region.Bytes()) {
		return tcuerr.Driverf(tcuerr.InsufficientBuffer, "read data too big: need %d bytes, bank is %d", needBytes, len(region.Bytes()))
	}
	if strideLog2 == 0 {
		return dram.ReadScalars(region, d.arch.DataType, offsetVec*d.arch.ArraySize, countVec*d.arch.ArraySize, buf)
	}
	for i := 0; i < countVec; i++ {
		off := (offsetVec + i*stride) * d.arch.ArraySize
		if err := dram.ReadScalars(region, d.arch.DataType, off, d.arch.ArraySize, buf[i*d.arch.ArraySize:(i+1)*d.arch.ArraySize]); err != nil {
			return err
		}
	}
	return nil
}
