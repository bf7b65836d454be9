package types

// Data Spaces (MS-OFFCRYPTO section 2.1)
// Bookkeeping streams that declare the EncryptedPackage stream as transformed
// by the strong encryption transform. The content is fixed for password
// encrypted OOXML documents.

// Names of the storages and streams in the \x06DataSpaces storage.
const (
	DataSpacesStorageName         = "\x06DataSpaces"
	DataSpaceVersionStreamName    = "Version"
	DataSpaceMapStreamName        = "DataSpaceMap"
	DataSpaceInfoStorageName      = "DataSpaceInfo"
	TransformInfoStorageName      = "TransformInfo"
	StrongEncryptionDataSpaceName = "StrongEncryptionDataSpace"
	StrongEncryptionTransformName = "StrongEncryptionTransform"
	TransformPrimaryStreamName    = "\x06Primary"
)

// Identifiers written into the data space streams.
const (
	DataSpacesFeatureIdentifier = "Microsoft.Container.DataSpaces"
	EncryptionTransformID       = "{FF9A3F03-56EF-4613-BDD5-5A41C1D07246}"
	EncryptionTransformName     = "Microsoft.Container.EncryptionTransform"
)

// DataSpaceVersion is a major/minor version pair.
// Reference: MS-OFFCRYPTO 2.1.5
type DataSpaceVersion struct {
	Major uint16
	Minor uint16
}

// DataSpaceVersionInfo is the content of the Version stream.
// Reference: MS-OFFCRYPTO 2.1.5
type DataSpaceVersionInfo struct {
	FeatureIdentifier string
	ReaderVersion     DataSpaceVersion
	UpdaterVersion    DataSpaceVersion
	WriterVersion     DataSpaceVersion
}

// DataSpaceReferenceComponent names a stream or storage a data space applies to.
type DataSpaceReferenceComponent struct {
	// Type is 0 for a stream and 1 for a storage.
	Type uint32
	Name string
}

// DataSpaceMapEntry associates reference components with a data space.
// Reference: MS-OFFCRYPTO 2.1.6.1
type DataSpaceMapEntry struct {
	ReferenceComponents []DataSpaceReferenceComponent
	DataSpaceName       string
}

// TransformInfo is the parsed \x06Primary stream of an encryption transform.
// Reference: MS-OFFCRYPTO 2.1.8, 2.2.6
type TransformInfo struct {
	TransformType  uint32
	TransformID    string
	TransformName  string
	ReaderVersion  DataSpaceVersion
	UpdaterVersion DataSpaceVersion
	WriterVersion  DataSpaceVersion
}
