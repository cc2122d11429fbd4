// Metadata.go
package Spectra

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMetadataNotFound 影像边车元数据XML缺失
var ErrMetadataNotFound = errors.New("metadata XML file not found")

// 影像文件名与元数据文件名的替换规则
const (
	spectralImageSuffix = "SPECTRAL_IMAGE.TIF"
	metadataSuffix      = "METADATA.XML"
)

// BandCharacterisation 单个波段的辐射特性
type BandCharacterisation struct {
	Number                 int     `xml:"number,attr"`
	WavelengthCenterOfBand float64 `xml:"wavelengthCenterOfBand"`
	GainOfBand             float64 `xml:"GainOfBand"`
	OffsetOfBand           float64 `xml:"OffsetOfBand"`
}

// SceneMetadata 边车元数据
// 波段特性表按固定标签路径 level_X/specific/bandCharacterisation/bandID 解析，
// 其余字段保留在通用树中供按路径查找
type SceneMetadata struct {
	XMLName  xml.Name `xml:"level_X"`
	Specific struct {
		BandCharacterisation struct {
			BandID []BandCharacterisation `xml:"bandID"`
		} `xml:"bandCharacterisation"`
	} `xml:"specific"`

	Tree *MetadataNode `xml:"-"`
}

// MetadataNode 通用XML元数据树节点
type MetadataNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr      `xml:",any,attr"`
	Text     string          `xml:",chardata"`
	Children []*MetadataNode `xml:",any"`
}

// Find 沿子节点标签名逐级查找，找不到返回nil
func (n *MetadataNode) Find(path ...string) *MetadataNode {
	cur := n
	for _, name := range path {
		if cur == nil {
			return nil
		}
		var next *MetadataNode
		for _, child := range cur.Children {
			if child.XMLName.Local == name {
				next = child
				break
			}
		}
		cur = next
	}
	return cur
}

// FindAll 返回当前节点下所有指定标签名的子节点
func (n *MetadataNode) FindAll(name string) []*MetadataNode {
	if n == nil {
		return nil
	}
	var out []*MetadataNode
	for _, child := range n.Children {
		if child.XMLName.Local == name {
			out = append(out, child)
		}
	}
	return out
}

// Value 节点文本内容（去除首尾空白）
func (n *MetadataNode) Value() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Text)
}

// findMetadataFile 根据影像路径推导元数据文件名并在同目录中查找
func findMetadataFile(rasterPath string) (string, error) {
	dir := filepath.Dir(rasterPath)
	xmlName := strings.Replace(filepath.Base(rasterPath), spectralImageSuffix, metadataSuffix, 1)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("读取目录失败 %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.Name() == xmlName {
			return filepath.Join(dir, xmlName), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrMetadataNotFound, xmlName)
}

// ParseSceneMetadata 解析边车元数据XML文件
func ParseSceneMetadata(path string) (*SceneMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取元数据文件失败 %s: %w", path, err)
	}
	return parseSceneMetadataBytes(data)
}

func parseSceneMetadataBytes(data []byte) (*SceneMetadata, error) {
	var meta SceneMetadata
	if err := xml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("解析元数据XML失败: %w", err)
	}

	var tree MetadataNode
	if err := xml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("解析元数据XML失败: %w", err)
	}
	meta.Tree = &tree

	return &meta, nil
}

// Wavelengths 提取各波段中心波长向量
func (m *SceneMetadata) Wavelengths() ([]float64, error) {
	bands := m.Specific.BandCharacterisation.BandID
	if len(bands) == 0 {
		return nil, fmt.Errorf("元数据中缺少波段特性表 bandCharacterisation/bandID")
	}
	wavelengths := make([]float64, len(bands))
	for i, band := range bands {
		wavelengths[i] = band.WavelengthCenterOfBand
	}
	return wavelengths, nil
}

// GainsAndOffsets 提取各波段的增益与偏移向量
func (m *SceneMetadata) GainsAndOffsets() ([]float64, []float64, error) {
	bands := m.Specific.BandCharacterisation.BandID
	if len(bands) == 0 {
		return nil, nil, fmt.Errorf("元数据中缺少波段特性表 bandCharacterisation/bandID")
	}
	gains := make([]float64, len(bands))
	offsets := make([]float64, len(bands))
	for i, band := range bands {
		gains[i] = band.GainOfBand
		offsets[i] = band.OffsetOfBand
	}
	return gains, offsets, nil
}
