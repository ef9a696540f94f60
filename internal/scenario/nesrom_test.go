package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRom(t *testing.T, header [16]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(path, header[:], 0o644); err != nil {
		t.Fatalf("write test ROM: %v", err)
	}
	return path
}

func TestInspectRomMissingFile(t *testing.T) {
	result := InspectRom(filepath.Join(t.TempDir(), "missing.nes"))
	if result.Status != RomFileNotFound {
		t.Fatalf("expected RomFileNotFound, got %v", result.Status)
	}
}

func TestInspectRomRejectsBadMagic(t *testing.T) {
	var header [16]byte
	copy(header[:], "XES\x1a")
	path := writeRom(t, header)

	result := InspectRom(path)
	if result.Status != RomInvalidHeader {
		t.Fatalf("expected RomInvalidHeader, got %v", result.Status)
	}
}

func TestInspectRomAcceptsSupportedMapper(t *testing.T) {
	var header [16]byte
	copy(header[:], "NES\x1a")
	header[4] = 2 // 2x 16k PRG banks
	header[6] = 0x10 // mapper low nibble = 1 (MMC1)
	path := writeRom(t, header)

	result := InspectRom(path)
	if !result.Compatible() {
		t.Fatalf("expected a compatible ROM, got %+v", result)
	}
	if result.Mapper != 1 {
		t.Fatalf("expected mapper 1, got %d", result.Mapper)
	}
}

func TestInspectRomRejectsUnsupportedMapper(t *testing.T) {
	var header [16]byte
	copy(header[:], "NES\x1a")
	header[6] = 0x50 // mapper low nibble = 5, not in smolnes's supported set
	path := writeRom(t, header)

	result := InspectRom(path)
	if result.Status != RomUnsupportedMapper {
		t.Fatalf("expected RomUnsupportedMapper, got %v", result.Status)
	}
}
