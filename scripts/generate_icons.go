//go:build ignore

// Скрипт для генерации иконок трея.
// Запуск: go run scripts/generate_icons.go
package main

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
)

func main() {
	dir := "embedded"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Не удалось создать директорию %s: %v", dir, err)
	}

	icons := []struct {
		name  string
		color color.RGBA
	}{
		{"icon_active", color.RGBA{50, 110, 220, 255}},     // Синий
		{"icon_suspended", color.RGBA{128, 128, 128, 255}}, // Серый
	}

	for _, icon := range icons {
		path := filepath.Join(dir, icon.name+".png")
		if err := generateIcon(path, icon.color); err != nil {
			log.Fatalf("Ошибка генерации %s: %v", icon.name, err)
		}
		log.Printf("Создан: %s", path)

		// Трею Windows нужен ICO, внутри лежит тот же PNG.
		ico := filepath.Join(dir, icon.name+".ico")
		if err := wrapICO(path, ico); err != nil {
			log.Fatalf("Ошибка генерации %s: %v", ico, err)
		}
		log.Printf("Создан: %s", ico)
	}
}

// generateIcon рисует клавишу: скруглённый квадрат с буквой H.
func generateIcon(path string, c color.RGBA) error {
	const (
		size   = 64
		margin = 6
		corner = 10
		stroke = 6
	)
	white := color.RGBA{255, 255, 255, 255}
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	inKey := func(x, y int) bool {
		lo, hi := margin, size-margin-1
		if x < lo || x > hi || y < lo || y > hi {
			return false
		}
		// углы
		cx, cy := x, y
		switch {
		case x < lo+corner:
			cx = lo + corner
		case x > hi-corner:
			cx = hi - corner
		}
		switch {
		case y < lo+corner:
			cy = lo + corner
		case y > hi-corner:
			cy = hi - corner
		}
		dx, dy := x-cx, y-cy
		return dx*dx+dy*dy <= corner*corner
	}

	inH := func(x, y int) bool {
		top, bottom := 18, 45
		left, right := 20, 43
		if y < top || y > bottom {
			return false
		}
		if x >= left && x < left+stroke || x > right-stroke && x <= right {
			return true
		}
		mid := (top + bottom) / 2
		return x >= left && x <= right && y >= mid-stroke/2 && y < mid+stroke/2
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			switch {
			case inH(x, y):
				img.Set(x, y, white)
			case inKey(x, y):
				img.Set(x, y, c)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}

// wrapICO упаковывает PNG 64x64 в ICO с одной записью.
func wrapICO(pngPath, icoPath string) error {
	data, err := os.ReadFile(pngPath)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	header := []uint16{0, 1, 1}
	entry := struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{64, 64, 0, 0, 1, 32, uint32(len(data)), 6 + 16}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, entry); err != nil {
		return err
	}
	buf.Write(data)

	return os.WriteFile(icoPath, buf.Bytes(), 0644)
}
