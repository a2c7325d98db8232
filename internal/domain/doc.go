// Package domain models ICOADS MSG.1 monthly summary records.
//
// # Data Source
//
// MSG.1 ("Monthly Summary Groups") archives are distributed by ICOADS as one
// tar file per statistical group and decade, e.g.
// MSG1_R3.0.0_ENH_G3_1960-1969.tar. Each tar holds one gzip-compressed payload
// per month; a payload is a flat sequence of packed 64-byte records.
//
// # Record Layout
//
// A record is unpacked into 49 coded integers, numbered from 1 to match the
// format definition (slot 0 of [Coded] is never used):
//
//	slot  1      byte 2                     year offset (year = coded + 1799)
//	slot  2      byte 3 high nibble         month
//	slot  3      byte 3 bits 1-3            box size
//	slot  4      10 bits from bytes 3-5     longitude, half degrees
//	slot  5      9 bits from bytes 5-6      latitude, half degrees
//	slots 6-7    byte 6 bits 3-5, 0-2       platform ID fragments
//	slots 8-9    byte 7 nibbles             group, checksum
//	slots 10-33  bytes 8-55                 big-endian uint16 data values
//	slots 34-49  bytes 56-63                4-bit data values
//
// Bytes 0 and 1 carry no slot. Byte 1 modulo 16 must equal 1 for the window
// to be a record start; see [HasSync].
//
// Data slots form ten blocks of four, one value per group variable:
//
//	10-13 S1 (lower tercile)   14-17 S3 (median)   18-21 S5 (upper tercile)
//	22-25 M (mean)             26-29 N (count)     30-33 S (std deviation)
//	34-37 D (mean day)         38-41 H (daylight)  42-45 X (mean longitude)
//	46-49 Y (mean latitude)
//
// Only the first four blocks are emitted by default. The remaining six are
// scaled but only surfaced as [Auxiliary] in extended output mode.
//
// # Scaling
//
// Coded values convert to physical units as (coded + base) * unit, with base
// and unit taken from the group's [ScalingTable]. A coded data value of zero
// means "not reported" and converts to [Missing] rather than a number.
//
// # Groups
//
// The group in slot 8 of each record is authoritative. The group named in
// the archive file name ("_G3_") is only a hint used for progress logging and
// is never compared against the record.
package domain
