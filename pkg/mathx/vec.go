package mathx

import "math"

// Vec3 三维向量。世界坐标系 Y 轴向上，单位在 XZ 平面上活动。
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// unknown 位置未知的哨兵值，由外围模拟在查询失败时返回
var unknown = Vec3{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}

// Unknown 返回"位置未知"哨兵
func Unknown() Vec3 {
	return unknown
}

// IsUnknown 判断是否为未知哨兵
func (v Vec3) IsUnknown() bool {
	return v == unknown
}

// Up 竖直向上的单位向量
func Up() Vec3 {
	return Vec3{Y: 1}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo 两点间欧氏距离
func (v Vec3) DistanceTo(o Vec3) float64 {
	return v.Sub(o).Length()
}

// Normalize 归一化；零向量返回零向量
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Cross 叉积
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// PerpendicularXZ 返回水平面内与 v 垂直的单位向量。
// v 为零向量或纯竖直向量时退化，返回 X 轴方向。
func (v Vec3) PerpendicularXZ() Vec3 {
	p := v.Cross(Up())
	if p.Length() < 1e-9 {
		return Vec3{X: 1}
	}
	return p.Normalize()
}

// Clamp 将 x 限制在 [lo, hi] 区间
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
