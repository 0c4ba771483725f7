// Package tagdict implements the TagDictionary lookup mechanism: a
// tag number maps to a (namespace, name, description) triple, merged
// from several namespaces with first-match-wins ordering. The large
// ExifTool-scale table this could be populated with is an external
// collaborator; this package carries only a representative built-in
// table (Orientation, ExposureTime, the sub-IFD pointers and other
// common tags). Tags outside it, such as the strip layout tags 273 and
// 277-279, resolve to no name.
package tagdict

// Entry is one resolved tag name.
type Entry struct {
	Namespace   string
	Name        string
	Description string
}

// Dictionary merges an ordered list of namespace tables. When a tag
// appears in more than one namespace, the first table in lookup order
// wins.
type Dictionary struct {
	order  []string
	tables map[string]map[uint16]Entry
}

// New returns the built-in dictionary with the standard EXIF namespace
// ordering: Image, Photo, Iop, GPSInfo, MpfInfo.
func New() *Dictionary {
	return &Dictionary{
		order: []string{"Image", "Photo", "Iop", "GPSInfo", "MpfInfo"},
		tables: map[string]map[uint16]Entry{
			"Image":   imageTable,
			"Photo":   photoTable,
			"Iop":     iopTable,
			"GPSInfo": gpsInfoTable,
			"MpfInfo": mpfInfoTable,
		},
	}
}

// Lookup resolves tag, trying each namespace in order and returning the
// first match.
func (d *Dictionary) Lookup(tag uint16) (Entry, bool) {
	for _, ns := range d.order {
		if e, ok := d.tables[ns][tag]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// AddNamespace inserts or replaces a namespace's table, appending it to
// the lookup order if it is new. Callers extending the dictionary with a
// larger external table use this rather than rebuilding Dictionary.
func (d *Dictionary) AddNamespace(name string, table map[uint16]Entry) {
	if _, exists := d.tables[name]; !exists {
		d.order = append(d.order, name)
	}
	d.tables[name] = table
}

var imageTable = map[uint16]Entry{
	256: {"Image", "ImageWidth", "Image width in pixels"},
	257: {"Image", "ImageLength", "Image height in pixels"},
	258: {"Image", "BitsPerSample", "Bits per sample"},
	259: {"Image", "Compression", "Compression scheme"},
	262: {"Image", "PhotometricInterpretation", "Pixel composition"},
	270: {"Image", "ImageDescription", "Image title"},
	271: {"Image", "Make", "Manufacturer of the recording equipment"},
	272: {"Image", "Model", "Model of the recording equipment"},
	274: {"Image", "Orientation", "Orientation of the image"},
	282: {"Image", "XResolution", "Image resolution in width direction"},
	283: {"Image", "YResolution", "Image resolution in height direction"},
	296: {"Image", "ResolutionUnit", "Unit of X and Y resolution"},
	305: {"Image", "Software", "Software used"},
	306: {"Image", "DateTime", "File change date and time"},
	33432: {"Image", "Copyright", "Copyright holder"},
	33434: {"Image", "ExposureTime", "Exposure time"},
	34665: {"Image", "ExifIFDPointer", "Pointer to EXIF sub-IFD"},
	34853: {"Image", "GPSInfoIFDPointer", "Pointer to GPS sub-IFD"},
}

var photoTable = map[uint16]Entry{
	33434: {"Photo", "ExposureTime", "Exposure time"},
	33437: {"Photo", "FNumber", "F number"},
	34850: {"Photo", "ExposureProgram", "Exposure program"},
	34855: {"Photo", "ISOSpeedRatings", "ISO speed rating"},
	36864: {"Photo", "ExifVersion", "EXIF version"},
	36867: {"Photo", "DateTimeOriginal", "Date and time of original data generation"},
	36868: {"Photo", "DateTimeDigitized", "Date and time of digital data generation"},
	37121: {"Photo", "ComponentsConfiguration", "Meaning of each component"},
	37377: {"Photo", "ShutterSpeedValue", "Shutter speed"},
	37378: {"Photo", "ApertureValue", "Aperture"},
	37380: {"Photo", "ExposureBiasValue", "Exposure bias"},
	37383: {"Photo", "MeteringMode", "Metering mode"},
	37384: {"Photo", "LightSource", "Light source"},
	37385: {"Photo", "Flash", "Flash"},
	37386: {"Photo", "FocalLength", "Lens focal length"},
	37500: {"Photo", "MakerNote", "Manufacturer notes"},
	37510: {"Photo", "UserComment", "User comments"},
	40961: {"Photo", "ColorSpace", "Color space information"},
	40962: {"Photo", "PixelXDimension", "Valid image width"},
	40963: {"Photo", "PixelYDimension", "Valid image height"},
	41986: {"Photo", "ExposureMode", "Exposure mode"},
	41987: {"Photo", "WhiteBalance", "White balance"},
	41989: {"Photo", "FocalLengthIn35mmFilm", "Focal length in 35 mm film"},
}

var iopTable = map[uint16]Entry{
	1: {"Iop", "InteroperabilityIndex", "Interoperability identification"},
	2: {"Iop", "InteroperabilityVersion", "Interoperability version"},
}

var gpsInfoTable = map[uint16]Entry{
	0:  {"GPSInfo", "GPSVersionID", "GPS tag version"},
	1:  {"GPSInfo", "GPSLatitudeRef", "North or south latitude"},
	2:  {"GPSInfo", "GPSLatitude", "Latitude"},
	3:  {"GPSInfo", "GPSLongitudeRef", "East or west longitude"},
	4:  {"GPSInfo", "GPSLongitude", "Longitude"},
	5:  {"GPSInfo", "GPSAltitudeRef", "Altitude reference"},
	6:  {"GPSInfo", "GPSAltitude", "Altitude"},
	7:  {"GPSInfo", "GPSTimeStamp", "GPS time (atomic clock)"},
	29: {"GPSInfo", "GPSDateStamp", "GPS date"},
}

var mpfInfoTable = map[uint16]Entry{
	45056: {"MpfInfo", "MPFVersion", "MPF version"},
	45057: {"MpfInfo", "NumberOfImages", "Number of images"},
}
