package divination

import "fmt"

// hexagramMap maps a hexagram's binary encoding to its King Wen number.
// Bit i is line i, bottom line = least significant bit, yang = 1.
// The lower trigram occupies bits 0-2, the upper trigram bits 3-5.
var hexagramMap = map[int]int{
	0b000000: 2,  // 坤为地
	0b000001: 24, // 地雷复
	0b000010: 7,  // 地水师
	0b000011: 19, // 地泽临
	0b000100: 15, // 地山谦
	0b000101: 36, // 地火明夷
	0b000110: 46, // 地风升
	0b000111: 11, // 地天泰
	0b001000: 16, // 雷地豫
	0b001001: 51, // 震为雷
	0b001010: 40, // 雷水解
	0b001011: 54, // 雷泽归妹
	0b001100: 62, // 雷山小过
	0b001101: 55, // 雷火丰
	0b001110: 32, // 雷风恒
	0b001111: 34, // 雷天大壮
	0b010000: 8,  // 水地比
	0b010001: 3,  // 水雷屯
	0b010010: 29, // 坎为水
	0b010011: 60, // 水泽节
	0b010100: 39, // 水山蹇
	0b010101: 63, // 水火既济
	0b010110: 48, // 水风井
	0b010111: 5,  // 水天需
	0b011000: 45, // 泽地萃
	0b011001: 17, // 泽雷随
	0b011010: 47, // 泽水困
	0b011011: 58, // 兑为泽
	0b011100: 31, // 泽山咸
	0b011101: 49, // 泽火革
	0b011110: 28, // 泽风大过
	0b011111: 43, // 泽天夬
	0b100000: 23, // 山地剥
	0b100001: 27, // 山雷颐
	0b100010: 4,  // 山水蒙
	0b100011: 41, // 山泽损
	0b100100: 52, // 艮为山
	0b100101: 22, // 山火贲
	0b100110: 18, // 山风蛊
	0b100111: 26, // 山天大畜
	0b101000: 35, // 火地晋
	0b101001: 21, // 火雷噬嗑
	0b101010: 64, // 火水未济
	0b101011: 38, // 火泽睽
	0b101100: 56, // 火山旅
	0b101101: 30, // 离为火
	0b101110: 50, // 火风鼎
	0b101111: 14, // 火天大有
	0b110000: 20, // 风地观
	0b110001: 42, // 风雷益
	0b110010: 59, // 风水涣
	0b110011: 61, // 风泽中孚
	0b110100: 53, // 风山渐
	0b110101: 37, // 风火家人
	0b110110: 57, // 巽为风
	0b110111: 9,  // 风天小畜
	0b111000: 12, // 天地否
	0b111001: 25, // 天雷无妄
	0b111010: 6,  // 天水讼
	0b111011: 10, // 天泽履
	0b111100: 33, // 天山遁
	0b111101: 13, // 天火同人
	0b111110: 44, // 天风姤
	0b111111: 1,  // 乾为天
}

// hexagramNames holds the display name per King Wen number (index 1-64).
var hexagramNames = [65]string{
	"",
	"乾为天", "坤为地", "水雷屯", "山水蒙", "水天需", "天水讼", "地水师", "水地比",
	"风天小畜", "天泽履", "地天泰", "天地否", "天火同人", "火天大有", "地山谦", "雷地豫",
	"泽雷随", "山风蛊", "地泽临", "风地观", "火雷噬嗑", "山火贲", "山地剥", "地雷复",
	"天雷无妄", "山天大畜", "山雷颐", "泽风大过", "坎为水", "离为火", "泽山咸", "雷风恒",
	"天山遁", "雷天大壮", "火地晋", "地火明夷", "风火家人", "火泽睽", "水山蹇", "雷水解",
	"山泽损", "风雷益", "泽天夬", "天风姤", "泽地萃", "地风升", "泽水困", "水风井",
	"泽火革", "火风鼎", "震为雷", "艮为山", "风山渐", "雷泽归妹", "雷火丰", "火山旅",
	"巽为风", "兑为泽", "风水涣", "水泽节", "风泽中孚", "雷山小过", "水火既济", "火水未济",
}

// Name returns the display name for a King Wen number, or a placeholder for
// out-of-range input.
func Name(number int) string {
	if number < 1 || number > 64 {
		return fmt.Sprintf("未知卦象(%d)", number)
	}
	return hexagramNames[number]
}

// ToBinary packs a line vector into its binary encoding (bottom line = bit 0).
func ToBinary(lines []int) int {
	v := 0
	for i, line := range lines {
		if line == 1 {
			v |= 1 << i
		}
	}
	return v
}

// Number looks up the King Wen number for a six-line vector.
func Number(lines [6]int) int {
	return hexagramMap[ToBinary(lines[:])]
}

// ValidateSymbolTable asserts that the binary → King Wen mapping is total
// over all 64 encodings and a true bijection onto 1..64. The whole engine
// rests on this property, so it is checked once at startup.
func ValidateSymbolTable() error {
	seen := make(map[int]int, 64)
	for code := 0; code < 64; code++ {
		number, ok := hexagramMap[code]
		if !ok {
			return fmt.Errorf("symbol table missing entry for %06b", code)
		}
		if number < 1 || number > 64 {
			return fmt.Errorf("symbol table entry %06b out of range: %d", code, number)
		}
		if prev, dup := seen[number]; dup {
			return fmt.Errorf("symbol table duplicate: %06b and %06b both map to %d", prev, code, number)
		}
		seen[number] = code
	}
	return nil
}
