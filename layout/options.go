package layout

import "github.com/ByLCY/autofit/fit"

// BuildOptions 配置布局阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Typesetter Typesetter
	// Defaults 是所有文本框的基础字号配置，DSL 的 defaults 段与 frame 属性在其上覆盖。
	Defaults fit.Config
	// Observer 为每个文本框返回一个诊断接收者，可为空。
	Observer ObserverFactory
	Debug    DebugOptions
}

// ObserverFactory 根据文本框名称返回对应的 fit.Observer。
type ObserverFactory func(frame string) fit.Observer

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	RawUnits bool // 在调试 JSON 中输出 debug.rawUnits 影子字段
}

// Wrap 策略，供 Typesetter 使用。
const (
	WrapNone      = "nowrap"     // 仅按显式换行划分
	WrapAnywhere  = "anywhere"   // 优先在空白处折行，超长单词在词内拆分
	WrapBreakWord = "break-word" // 忽略空白，纯按宽度拆分
)

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
// 所有长度均为 px；width <= 0 表示不限宽。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}

func (o BuildOptions) observer(frame string) fit.Observer {
	if o.Observer == nil {
		return fit.NopObserver{}
	}
	if obs := o.Observer(frame); obs != nil {
		return obs
	}
	return fit.NopObserver{}
}
