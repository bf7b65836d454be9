package encryptioninfo

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"

	"github.com/deploymenttheory/go-officecrypto/internal/types"
)

// xmlDeclaration is the declaration Office writes in front of the descriptor.
const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

// keyDataXML maps CT_KeyData.
type keyDataXML struct {
	SaltSize        int    `xml:"saltSize,attr"`
	BlockSize       int    `xml:"blockSize,attr"`
	KeyBits         int    `xml:"keyBits,attr"`
	HashSize        int    `xml:"hashSize,attr"`
	CipherAlgorithm string `xml:"cipherAlgorithm,attr"`
	CipherChaining  string `xml:"cipherChaining,attr"`
	HashAlgorithm   string `xml:"hashAlgorithm,attr"`
	SaltValue       string `xml:"saltValue,attr"`
}

type dataIntegrityXML struct {
	EncryptedHmacKey   string `xml:"encryptedHmacKey,attr"`
	EncryptedHmacValue string `xml:"encryptedHmacValue,attr"`
}

// encryptedKeyXML maps CT_PasswordKeyEncryptor.
type encryptedKeyXML struct {
	SpinCount                  int    `xml:"spinCount,attr"`
	SaltSize                   int    `xml:"saltSize,attr"`
	BlockSize                  int    `xml:"blockSize,attr"`
	KeyBits                    int    `xml:"keyBits,attr"`
	HashSize                   int    `xml:"hashSize,attr"`
	CipherAlgorithm            string `xml:"cipherAlgorithm,attr"`
	CipherChaining             string `xml:"cipherChaining,attr"`
	HashAlgorithm              string `xml:"hashAlgorithm,attr"`
	SaltValue                  string `xml:"saltValue,attr"`
	EncryptedVerifierHashInput string `xml:"encryptedVerifierHashInput,attr"`
	EncryptedVerifierHashValue string `xml:"encryptedVerifierHashValue,attr"`
	EncryptedKeyValue          string `xml:"encryptedKeyValue,attr"`
}

// The descriptor is written with the p: prefix Office expects but read by
// local name, so that any prefix binding of the namespaces is accepted.
// encoding/xml cannot do both with one set of tags.

type keyEncryptorWriteXML struct {
	URI          string          `xml:"uri,attr"`
	EncryptedKey encryptedKeyXML `xml:"p:encryptedKey"`
}

type encryptionWriteXML struct {
	XMLName       xml.Name               `xml:"encryption"`
	Xmlns         string                 `xml:"xmlns,attr"`
	XmlnsP        string                 `xml:"xmlns:p,attr"`
	XmlnsC        string                 `xml:"xmlns:c,attr"`
	KeyData       keyDataXML             `xml:"keyData"`
	DataIntegrity dataIntegrityXML       `xml:"dataIntegrity"`
	KeyEncryptors []keyEncryptorWriteXML `xml:"keyEncryptors>keyEncryptor"`
}

type keyEncryptorReadXML struct {
	URI          string           `xml:"uri,attr"`
	EncryptedKey *encryptedKeyXML `xml:"encryptedKey"`
}

type encryptionReadXML struct {
	XMLName       xml.Name              `xml:"encryption"`
	KeyData       *keyDataXML           `xml:"keyData"`
	DataIntegrity *dataIntegrityXML     `xml:"dataIntegrity"`
	KeyEncryptors []keyEncryptorReadXML `xml:"keyEncryptors>keyEncryptor"`
}

// ReadAgile parses an Agile EncryptionInfo stream: the 8 byte version prefix
// followed by the UTF-8 XML descriptor. Only password key encryptors are
// returned; certificate key encryptors are skipped.
func ReadAgile(data []byte) (*types.EncryptionInfoAgile, error) {
	if DetectVersion(data) != types.VersionAgile {
		return nil, VersionError(data)
	}
	if len(data) < types.AgilePrefixSize {
		return nil, fmt.Errorf("%w: data too small for Agile prefix: need %d bytes, got %d",
			types.ErrUnsupportedEncryptionFormat, types.AgilePrefixSize, len(data))
	}

	info := &types.EncryptionInfoAgile{
		MajorVersion: binary.LittleEndian.Uint16(data[0:2]),
		MinorVersion: binary.LittleEndian.Uint16(data[2:4]),
		Reserved:     binary.LittleEndian.Uint32(data[4:8]),
	}

	var doc encryptionReadXML
	if err := xml.Unmarshal(bytes.TrimRight(data[types.AgilePrefixSize:], "\x00"), &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid encryption descriptor: %v", types.ErrUnsupportedEncryptionFormat, err)
	}
	if doc.KeyData == nil {
		return nil, fmt.Errorf("%w: descriptor has no keyData element", types.ErrUnsupportedEncryptionFormat)
	}

	var err error
	if info.KeyData, err = keyDataFromXML(*doc.KeyData); err != nil {
		return nil, err
	}
	if doc.DataIntegrity != nil {
		if info.DataIntegrity.EncryptedHmacKey, err = decodeBase64("encryptedHmacKey", doc.DataIntegrity.EncryptedHmacKey); err != nil {
			return nil, err
		}
		if info.DataIntegrity.EncryptedHmacValue, err = decodeBase64("encryptedHmacValue", doc.DataIntegrity.EncryptedHmacValue); err != nil {
			return nil, err
		}
	}

	for _, ke := range doc.KeyEncryptors {
		if ke.URI != types.PasswordKeyEncryptorURI || ke.EncryptedKey == nil {
			continue
		}
		pke, err := passwordEncryptorFromXML(*ke.EncryptedKey)
		if err != nil {
			return nil, err
		}
		info.KeyEncryptors = append(info.KeyEncryptors, pke)
	}
	return info, nil
}

// WriteAgile serializes an Agile EncryptionInfo stream.
func WriteAgile(info *types.EncryptionInfoAgile) ([]byte, error) {
	if info == nil {
		return nil, fmt.Errorf("cannot write a nil EncryptionInfo")
	}
	doc := encryptionWriteXML{
		Xmlns:   types.AgileEncryptionNamespace,
		XmlnsP:  types.PasswordKeyEncryptorURI,
		XmlnsC:  types.CertificateKeyEncryptorNS,
		KeyData: keyDataToXML(info.KeyData),
		DataIntegrity: dataIntegrityXML{
			EncryptedHmacKey:   base64.StdEncoding.EncodeToString(info.DataIntegrity.EncryptedHmacKey),
			EncryptedHmacValue: base64.StdEncoding.EncodeToString(info.DataIntegrity.EncryptedHmacValue),
		},
	}
	for _, ke := range info.KeyEncryptors {
		kd := keyDataToXML(ke.KeyData)
		doc.KeyEncryptors = append(doc.KeyEncryptors, keyEncryptorWriteXML{
			URI: types.PasswordKeyEncryptorURI,
			EncryptedKey: encryptedKeyXML{
				SpinCount:                  ke.SpinCount,
				SaltSize:                   kd.SaltSize,
				BlockSize:                  kd.BlockSize,
				KeyBits:                    kd.KeyBits,
				HashSize:                   kd.HashSize,
				CipherAlgorithm:            kd.CipherAlgorithm,
				CipherChaining:             kd.CipherChaining,
				HashAlgorithm:              kd.HashAlgorithm,
				SaltValue:                  kd.SaltValue,
				EncryptedVerifierHashInput: base64.StdEncoding.EncodeToString(ke.EncryptedVerifierHashInput),
				EncryptedVerifierHashValue: base64.StdEncoding.EncodeToString(ke.EncryptedVerifierHashValue),
				EncryptedKeyValue:          base64.StdEncoding.EncodeToString(ke.EncryptedKeyValue),
			},
		})
	}

	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal encryption descriptor: %w", err)
	}

	buf := make([]byte, 0, types.AgilePrefixSize+len(xmlDeclaration)+len(body))
	buf = binary.LittleEndian.AppendUint16(buf, types.AgileMajorVersion)
	buf = binary.LittleEndian.AppendUint16(buf, types.AgileMinorVersion)
	buf = binary.LittleEndian.AppendUint32(buf, types.AgileReserved)
	buf = append(buf, xmlDeclaration...)
	buf = append(buf, body...)
	return buf, nil
}

func keyDataToXML(kd types.KeyData) keyDataXML {
	return keyDataXML{
		SaltSize:        kd.SaltSize,
		BlockSize:       kd.BlockSize,
		KeyBits:         kd.KeyBits,
		HashSize:        kd.HashSize,
		CipherAlgorithm: kd.CipherAlgorithm,
		CipherChaining:  kd.CipherChaining,
		HashAlgorithm:   kd.HashAlgorithm,
		SaltValue:       base64.StdEncoding.EncodeToString(kd.SaltValue),
	}
}

func keyDataFromXML(x keyDataXML) (types.KeyData, error) {
	salt, err := decodeBase64("saltValue", x.SaltValue)
	if err != nil {
		return types.KeyData{}, err
	}
	return types.KeyData{
		SaltSize:        x.SaltSize,
		BlockSize:       x.BlockSize,
		KeyBits:         x.KeyBits,
		HashSize:        x.HashSize,
		CipherAlgorithm: x.CipherAlgorithm,
		CipherChaining:  x.CipherChaining,
		HashAlgorithm:   x.HashAlgorithm,
		SaltValue:       salt,
	}, nil
}

func passwordEncryptorFromXML(x encryptedKeyXML) (types.PasswordKeyEncryptor, error) {
	var pke types.PasswordKeyEncryptor
	kd, err := keyDataFromXML(keyDataXML{
		SaltSize:        x.SaltSize,
		BlockSize:       x.BlockSize,
		KeyBits:         x.KeyBits,
		HashSize:        x.HashSize,
		CipherAlgorithm: x.CipherAlgorithm,
		CipherChaining:  x.CipherChaining,
		HashAlgorithm:   x.HashAlgorithm,
		SaltValue:       x.SaltValue,
	})
	if err != nil {
		return pke, err
	}
	pke.KeyData = kd
	pke.SpinCount = x.SpinCount
	if pke.EncryptedVerifierHashInput, err = decodeBase64("encryptedVerifierHashInput", x.EncryptedVerifierHashInput); err != nil {
		return pke, err
	}
	if pke.EncryptedVerifierHashValue, err = decodeBase64("encryptedVerifierHashValue", x.EncryptedVerifierHashValue); err != nil {
		return pke, err
	}
	if pke.EncryptedKeyValue, err = decodeBase64("encryptedKeyValue", x.EncryptedKeyValue); err != nil {
		return pke, err
	}
	return pke, nil
}

func decodeBase64(field, s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %s is not valid base64: %v", types.ErrUnsupportedEncryptionFormat, field, err)
	}
	return b, nil
}
