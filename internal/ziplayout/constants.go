package ziplayout

// ZIP format constants. See the PKZIP APPNOTE
// (https://www.pkware.com/appnote) for field-by-field definitions.
const (
	fileHeaderSignature     = 0x04034b50
	directoryHeaderSignature = 0x02014b50
	directoryEndSignature    = 0x06054b50
	directory64LocSignature  = 0x07064b50
	directory64EndSignature  = 0x06064b50

	fileHeaderLen      = 30 // + filename + extra
	directoryHeaderLen = 46 // + filename + extra + comment
	directoryEndLen    = 22 // + comment
	directory64LocLen  = 20
	directory64EndLen  = 56 // + extra

	// zip64ExtraHeaderLen is the 4-byte (ID, size) prefix of a zip64
	// extra field block, not counting the payload that follows it.
	zip64ExtraHeaderLen = 4

	// Version numbers advertised in version-needed / version-made-by.
	zipVersion20 = 20 // 2.0
	zipVersion45 = 45 // 4.5 (zip64)

	// Limits for fields that are 16 or 32 bits wide in the non-zip64
	// encoding; a field at or above its limit must use the zip64
	// extension instead.
	uint16max = (1 << 16) - 1
	uint32max = (1 << 32) - 1

	// zip64ExtraID is the registered extra-field ID for the Zip64
	// extended information block.
	zip64ExtraID = 0x0001

	// utf8NameFlag is general-purpose bit flag 11, "language encoding
	// flag (EFS)": the file name and comment fields are UTF-8.
	utf8NameFlag = 0x800

	// fixedModDate and fixedModTime are the MS-DOS date/time fields
	// written for every entry. The manifest carries no timestamps, and a
	// constant sentinel keeps the ETag a pure function of file identity.
	// This is 1980-01-01 00:00:00, the MS-DOS epoch.
	fixedModDate uint16 = 0x21
	fixedModTime uint16 = 0x00
)
