package archive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // WinZip AES derives and authenticates with SHA-1
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"io/fs"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	yzip "github.com/yeka/zip"
	"golang.org/x/crypto/pbkdf2"
)

const (
	flagEncrypted = 0x1

	// methodAES marks a WinZip AES entry; the real method sits in the AES extra field.
	methodAES = 99

	aesExtraID    = 0x9901
	aesVersion    = 1 // AE-1 keeps the CRC of the plaintext
	aesStrength   = 3 // AES-256
	aesKeyLen     = 32
	aesSaltLen    = aesKeyLen / 2
	aesVerifyLen  = 2
	aesAuthLen    = 10
	aesIterations = 1000

	zipCryptoHeaderLen = 12
)

// entry starts the single entry of zw for info. Its contents are deflated at the configured level
// and then encrypted with the configured method.
func (e *Encryptor) entry(zw *zip.Writer, info fs.FileInfo, password string) (io.Writer, error) {
	fh, err := zip.FileInfoHeader(info)
	if err != nil {
		return nil, fmt.Errorf("archive header: %w", err)
	}

	fh.Method = zip.Deflate
	fh.Flags |= flagEncrypted

	var seal func(w io.Writer) (io.WriteCloser, error)

	switch e.method {
	case AES256, "":
		fh.Extra = append(fh.Extra, aesExtra(zip.Deflate)...)
		fh.Method = methodAES

		seal = func(w io.Writer) (io.WriteCloser, error) {
			return newAESWriter(w, password)
		}
	case Standard:
		seal = func(w io.Writer) (io.WriteCloser, error) {
			// CreateHeader has set the DOS time by the time the compressor is built.
			return newZipCryptoWriter(w, password, fh.ModifiedTime)
		}
	default:
		return nil, fmt.Errorf("unknown encryption method %q", e.method)
	}

	level := e.level

	zw.RegisterCompressor(fh.Method, func(w io.Writer) (io.WriteCloser, error) {
		sealed, err := seal(w)
		if err != nil {
			return nil, err
		}

		fw, err := flate.NewWriter(sealed, level)
		if err != nil {
			return nil, err
		}

		return &sealedWriter{Writer: fw, seal: sealed}, nil
	})

	return zw.CreateHeader(fh)
}

// sealedWriter flushes the deflate stream and then the cipher trailer.
type sealedWriter struct {
	*flate.Writer
	seal io.Closer
}

func (s *sealedWriter) Close() error {
	if err := s.Writer.Close(); err != nil {
		return err
	}

	return s.seal.Close()
}

func aesExtra(method uint16) []byte {
	b := make([]byte, 11) //nolint:mnd

	binary.LittleEndian.PutUint16(b[0:], aesExtraID)
	binary.LittleEndian.PutUint16(b[2:], 7) //nolint:mnd
	binary.LittleEndian.PutUint16(b[4:], aesVersion)
	b[6], b[7] = 'A', 'E'
	b[8] = aesStrength
	binary.LittleEndian.PutUint16(b[9:], method)

	return b
}

// aesWriter writes a WinZip AES-256 entry body: salt, password verifier, AES-CTR ciphertext
// with a little-endian counter starting at 1, then the HMAC-SHA1 of the ciphertext cut to 10 bytes.
type aesWriter struct {
	w        io.Writer
	preamble []byte
	block    cipher.Block
	counter  [aes.BlockSize]byte
	stream   [aes.BlockSize]byte
	used     int
	mac      hash.Hash
}

func newAESWriter(w io.Writer, password string) (*aesWriter, error) {
	salt := make([]byte, aesSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("archive salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, aesIterations, 2*aesKeyLen+aesVerifyLen, sha1.New)

	block, err := aes.NewCipher(key[:aesKeyLen])
	if err != nil {
		return nil, err
	}

	return &aesWriter{
		w:        w,
		preamble: append(salt, key[2*aesKeyLen:]...),
		block:    block,
		used:     aes.BlockSize,
		mac:      hmac.New(sha1.New, key[aesKeyLen:2*aesKeyLen]),
	}, nil
}

// start writes the salt and verifier. The entry's local header must already be out,
// so this waits for the first write.
func (a *aesWriter) start() error {
	if a.preamble == nil {
		return nil
	}

	_, err := a.w.Write(a.preamble)
	a.preamble = nil

	return err
}

func (a *aesWriter) Write(p []byte) (int, error) {
	if err := a.start(); err != nil {
		return 0, err
	}

	out := make([]byte, len(p))

	for i := range p {
		if a.used == aes.BlockSize {
			a.next()
		}

		out[i] = p[i] ^ a.stream[a.used]
		a.used++
	}

	a.mac.Write(out)

	if _, err := a.w.Write(out); err != nil {
		return 0, err
	}

	return len(p), nil
}

func (a *aesWriter) next() {
	for i := range a.counter {
		a.counter[i]++
		if a.counter[i] != 0 {
			break
		}
	}

	a.block.Encrypt(a.stream[:], a.counter[:])
	a.used = 0
}

func (a *aesWriter) Close() error {
	if err := a.start(); err != nil {
		return err
	}

	_, err := a.w.Write(a.mac.Sum(nil)[:aesAuthLen])

	return err
}

// zipCryptoWriter writes a PKWARE traditional encryption entry body. The last header byte is the
// high byte of the DOS time, the check value readers use when the entry has a data descriptor.
type zipCryptoWriter struct {
	w      io.Writer
	keys   *yzip.ZipCrypto
	header []byte
}

func newZipCryptoWriter(w io.Writer, password string, modified uint16) (*zipCryptoWriter, error) {
	header := make([]byte, zipCryptoHeaderLen)
	if _, err := rand.Read(header); err != nil {
		return nil, fmt.Errorf("archive header: %w", err)
	}

	header[zipCryptoHeaderLen-1] = byte(modified >> 8) //nolint:mnd

	return &zipCryptoWriter{w: w, keys: yzip.NewZipCrypto([]byte(password)), header: header}, nil
}

func (z *zipCryptoWriter) start() error {
	if z.header == nil {
		return nil
	}

	_, err := z.w.Write(z.keys.Encrypt(z.header))
	z.header = nil

	return err
}

func (z *zipCryptoWriter) Write(p []byte) (int, error) {
	if err := z.start(); err != nil {
		return 0, err
	}

	if _, err := z.w.Write(z.keys.Encrypt(p)); err != nil {
		return 0, err
	}

	return len(p), nil
}

func (z *zipCryptoWriter) Close() error {
	return z.start()
}
